// Package matrix builds the presence/absence matrix of mutation identities
// across samples.
package matrix

import (
	"fmt"
	"slices"

	"github.com/willf/bitset"

	"github.com/inodb/vibe-vcfdist/internal/cohort"
	"github.com/inodb/vibe-vcfdist/internal/mutation"
)

// Row is the immutable input of one sample: its name and identities.
type Row struct {
	Name       string
	Identities []mutation.Identity
}

// Presence is a dense samples × identities 0/1 matrix. Rows are sorted by
// sample name and columns by mutation.Compare, so the matrix does not depend
// on the order samples were processed in.
type Presence struct {
	samples    []string
	sampleIdx  map[string]int
	identities []mutation.Identity
	columnIdx  map[string]int
	rows       []*bitset.BitSet
}

// FromSamples builds the matrix from loaded cohort samples.
func FromSamples(samples []*cohort.Sample) (*Presence, error) {
	rows := make([]Row, len(samples))
	for i, s := range samples {
		rows[i] = Row{Name: s.Name, Identities: s.Mutations}
	}
	return Build(rows)
}

// Build reduces per-sample identity lists into a presence matrix. Only
// identities observed in at least one sample become columns.
func Build(rows []Row) (*Presence, error) {
	p := &Presence{
		sampleIdx: make(map[string]int, len(rows)),
		columnIdx: make(map[string]int),
	}

	for _, r := range rows {
		if _, ok := p.sampleIdx[r.Name]; ok {
			return nil, fmt.Errorf("duplicate sample %q", r.Name)
		}
		p.sampleIdx[r.Name] = -1
		p.samples = append(p.samples, r.Name)

		for _, id := range r.Identities {
			if _, ok := p.columnIdx[id.Key()]; !ok {
				p.columnIdx[id.Key()] = -1
				p.identities = append(p.identities, id)
			}
		}
	}

	slices.Sort(p.samples)
	slices.SortFunc(p.identities, mutation.Compare)
	for i, name := range p.samples {
		p.sampleIdx[name] = i
	}
	for j, id := range p.identities {
		p.columnIdx[id.Key()] = j
	}

	p.rows = make([]*bitset.BitSet, len(p.samples))
	for _, r := range rows {
		row := bitset.New(uint(len(p.identities)))
		for _, id := range r.Identities {
			row.Set(uint(p.columnIdx[id.Key()]))
		}
		p.rows[p.sampleIdx[r.Name]] = row
	}

	return p, nil
}

// Samples returns the sample names in row order.
func (p *Presence) Samples() []string {
	return p.samples
}

// Identities returns the identities in column order.
func (p *Presence) Identities() []mutation.Identity {
	return p.identities
}

// Keys returns the identity keys in column order.
func (p *Presence) Keys() []string {
	keys := make([]string, len(p.identities))
	for j, id := range p.identities {
		keys[j] = id.Key()
	}
	return keys
}

// NumSamples returns the number of rows.
func (p *Presence) NumSamples() int {
	return len(p.samples)
}

// NumIdentities returns the number of columns.
func (p *Presence) NumIdentities() int {
	return len(p.identities)
}

// At returns 1 if sample carries the identity with the given key, else 0.
// Unknown samples or keys are 0.
func (p *Presence) At(sample, key string) int {
	i, ok := p.sampleIdx[sample]
	if !ok {
		return 0
	}
	j, ok := p.columnIdx[key]
	if !ok {
		return 0
	}
	if p.rows[i].Test(uint(j)) {
		return 1
	}
	return 0
}

// Row returns the bit row of the sample at index i.
func (p *Presence) Row(i int) *bitset.BitSet {
	return p.rows[i]
}

// Count returns the number of distinct identities carried by the sample at index i.
func (p *Presence) Count(i int) int {
	return int(p.rows[i].Count())
}

// Support returns how many samples carry the identity at column j.
func (p *Presence) Support(j int) int {
	n := 0
	for _, row := range p.rows {
		if row.Test(uint(j)) {
			n++
		}
	}
	return n
}

// Dense returns the matrix as rows of 0/1 cells, samples × identities.
func (p *Presence) Dense() [][]uint8 {
	out := make([][]uint8, len(p.rows))
	for i, row := range p.rows {
		cells := make([]uint8, len(p.identities))
		for j, ok := row.NextSet(0); ok; j, ok = row.NextSet(j + 1) {
			cells[j] = 1
		}
		out[i] = cells
	}
	return out
}

// Transpose returns the matrix as rows of 0/1 cells, identities × samples.
func (p *Presence) Transpose() [][]uint8 {
	out := make([][]uint8, len(p.identities))
	for j := range out {
		out[j] = make([]uint8, len(p.rows))
	}
	for i, row := range p.rows {
		for j, ok := row.NextSet(0); ok; j, ok = row.NextSet(j + 1) {
			out[j][i] = 1
		}
	}
	return out
}
