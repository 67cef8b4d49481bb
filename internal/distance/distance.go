// Package distance computes pairwise sample distances and hierarchical
// clusterings of them.
package distance

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/exascience/pargo/parallel"
	"gonum.org/v1/gonum/mat"

	"github.com/inodb/vibe-vcfdist/internal/cohort"
	"github.com/inodb/vibe-vcfdist/internal/matrix"
)

// ErrEmptyInput is returned when fewer than two samples are given.
var ErrEmptyInput = errors.New("pairwise distance needs at least 2 samples")

// Metric selects how two samples are compared.
type Metric string

const (
	// MetricCount is |count(A) - count(B)|, a difference of set sizes.
	MetricCount Metric = "count"
	// MetricJaccard is 1 - |A∩B| / |A∪B| over presence rows.
	MetricJaccard Metric = "jaccard"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(s)) {
	case MetricCount:
		return MetricCount, nil
	case MetricJaccard, "":
		return MetricJaccard, nil
	}
	return "", fmt.Errorf("unknown distance metric %q (want count or jaccard)", s)
}

// Matrix is a labelled symmetric distance matrix with a zero diagonal.
type Matrix struct {
	labels []string
	index  map[string]int
	sym    *mat.SymDense
}

func newMatrix(labels []string) (*Matrix, error) {
	if len(labels) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrEmptyInput, len(labels))
	}
	m := &Matrix{
		labels: labels,
		index:  make(map[string]int, len(labels)),
		sym:    mat.NewSymDense(len(labels), nil),
	}
	for i, l := range labels {
		m.index[l] = i
	}
	return m, nil
}

// NewMatrix creates a matrix from labels and a full square of values. Only
// the upper triangle is read.
func NewMatrix(labels []string, values [][]float64) (*Matrix, error) {
	m, err := newMatrix(labels)
	if err != nil {
		return nil, err
	}
	if len(values) != len(labels) {
		return nil, fmt.Errorf("distance matrix has %d rows for %d labels", len(values), len(labels))
	}
	for i := range labels {
		if len(values[i]) != len(labels) {
			return nil, fmt.Errorf("distance matrix row %d has %d values for %d labels", i, len(values[i]), len(labels))
		}
		for j := i + 1; j < len(labels); j++ {
			m.sym.SetSym(i, j, values[i][j])
		}
	}
	return m, nil
}

// Labels returns the sample names in matrix order.
func (m *Matrix) Labels() []string {
	return m.labels
}

// Len returns the number of samples.
func (m *Matrix) Len() int {
	return len(m.labels)
}

// At returns the distance between the samples at indices i and j.
func (m *Matrix) At(i, j int) float64 {
	return m.sym.At(i, j)
}

// Between returns the distance between two named samples.
func (m *Matrix) Between(a, b string) (float64, bool) {
	i, ok := m.index[a]
	if !ok {
		return 0, false
	}
	j, ok := m.index[b]
	if !ok {
		return 0, false
	}
	return m.sym.At(i, j), true
}

// Sym returns the underlying symmetric matrix.
func (m *Matrix) Sym() mat.Symmetric {
	return m.sym
}

// Dense returns the full square of distances.
func (m *Matrix) Dense() [][]float64 {
	n := m.Len()
	out := make([][]float64, n)
	for i := range n {
		out[i] = make([]float64, n)
		for j := range n {
			out[i][j] = m.sym.At(i, j)
		}
	}
	return out
}

// CountDifference computes |count(A) - count(B)| for every pair of samples,
// where counts include the repeats indel expansion produces for records
// called more than once. Without expansion each identity counts once. It is a
// coarse proxy: samples with equal counts are at distance 0 even when their
// mutations differ.
func CountDifference(samples []*cohort.Sample) (*Matrix, error) {
	sorted := slices.Clone(samples)
	slices.SortFunc(sorted, func(a, b *cohort.Sample) int { return strings.Compare(a.Name, b.Name) })

	labels := make([]string, len(sorted))
	for i, s := range sorted {
		labels[i] = s.Name
	}
	m, err := newMatrix(labels)
	if err != nil {
		return nil, err
	}

	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			d := sorted[i].Count() - sorted[j].Count()
			if d < 0 {
				d = -d
			}
			m.sym.SetSym(i, j, float64(d))
		}
	}
	return m, nil
}

// Jaccard computes 1 - |A∩B| / |A∪B| between every pair of presence rows.
// Two samples without any mutation are at distance 0.
func Jaccard(p *matrix.Presence) (*Matrix, error) {
	m, err := newMatrix(slices.Clone(p.Samples()))
	if err != nil {
		return nil, err
	}

	n := p.NumSamples()
	// each i owns the cells (i, j>i), so ranges never write the same cell
	parallel.Range(0, n, 0, func(low, high int) {
		for i := low; i < high; i++ {
			a := p.Row(i)
			for j := i + 1; j < n; j++ {
				b := p.Row(j)
				union := a.UnionCardinality(b)
				if union == 0 {
					continue
				}
				inter := a.IntersectionCardinality(b)
				m.sym.SetSym(i, j, 1-float64(inter)/float64(union))
			}
		}
	})
	return m, nil
}

// Compute dispatches to the selected metric. The presence matrix is only
// read for Jaccard, the samples only for the count difference.
func Compute(metric Metric, samples []*cohort.Sample, p *matrix.Presence) (*Matrix, error) {
	switch metric {
	case MetricCount:
		return CountDifference(samples)
	case MetricJaccard:
		if p == nil {
			var err error
			if p, err = matrix.FromSamples(samples); err != nil {
				return nil, err
			}
		}
		return Jaccard(p)
	}
	return nil, fmt.Errorf("unknown distance metric %q", metric)
}
