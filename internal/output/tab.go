// Package output provides writers for matrices, distances and clusterings.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-vcfdist/internal/cohort"
	"github.com/inodb/vibe-vcfdist/internal/distance"
	"github.com/inodb/vibe-vcfdist/internal/matrix"
	"github.com/inodb/vibe-vcfdist/internal/mutation"
)

// TabWriter writes rows in tab-delimited format.
type TabWriter struct {
	w *bufio.Writer
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

// WriteRow writes one line of tab-separated values.
func (tw *TabWriter) WriteRow(values ...string) error {
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// WritePresence writes the presence matrix with one row per sample and one
// column per mutation identity. With transpose, rows are identities and
// columns are samples.
func WritePresence(w io.Writer, p *matrix.Presence, transpose bool) error {
	tw := NewTabWriter(w)

	rowNames, colNames, cells := p.Samples(), p.Keys(), p.Dense()
	corner := "sample"
	if transpose {
		rowNames, colNames, cells = p.Keys(), p.Samples(), p.Transpose()
		corner = "mutation"
	}

	if err := tw.WriteRow(append([]string{corner}, colNames...)...); err != nil {
		return err
	}
	values := make([]string, len(colNames)+1)
	for i, name := range rowNames {
		values[0] = name
		for j, c := range cells[i] {
			values[j+1] = strconv.Itoa(int(c))
		}
		if err := tw.WriteRow(values...); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteDistances writes the square labelled distance matrix.
func WriteDistances(w io.Writer, d *distance.Matrix) error {
	tw := NewTabWriter(w)

	if err := tw.WriteRow(append([]string{"sample"}, d.Labels()...)...); err != nil {
		return err
	}
	values := make([]string, d.Len()+1)
	for i, label := range d.Labels() {
		values[0] = label
		for j := range d.Len() {
			values[j+1] = formatFloat(d.At(i, j))
		}
		if err := tw.WriteRow(values...); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteLinkage writes one line per merge step.
func WriteLinkage(w io.Writer, merges []distance.Merge) error {
	tw := NewTabWriter(w)

	if err := tw.WriteRow("cluster_a", "cluster_b", "distance", "size"); err != nil {
		return err
	}
	for _, m := range merges {
		if err := tw.WriteRow(
			strconv.Itoa(m.A),
			strconv.Itoa(m.B),
			formatFloat(m.Distance),
			strconv.Itoa(m.Size),
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteNewick writes the dendrogram of a linkage as a Newick tree.
func WriteNewick(w io.Writer, merges []distance.Merge, labels []string) error {
	_, err := io.WriteString(w, distance.Newick(merges, labels)+"\n")
	return err
}

// WriteMutations writes every identity of every sample, in sample order.
// Identities repeated by indel expansion keep their offset in the key.
func WriteMutations(w io.Writer, samples []*cohort.Sample) error {
	tw := NewTabWriter(w)

	if err := tw.WriteRow("sample", "identity", "type"); err != nil {
		return err
	}
	for _, s := range samples {
		for _, id := range s.Mutations {
			typ := mutation.ClassifyAllele(id.Ref, id.Allele)
			if err := tw.WriteRow(s.Name, id.Key(), string(typ)); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
