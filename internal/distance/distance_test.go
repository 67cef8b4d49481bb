package distance

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-vcfdist/internal/cohort"
	"github.com/inodb/vibe-vcfdist/internal/matrix"
	"github.com/inodb/vibe-vcfdist/internal/mutation"
	"github.com/inodb/vibe-vcfdist/internal/vcf"
)

func id(pos int64, ref, alt string) mutation.Identity {
	return mutation.NewIdentity(pos, ref, alt)
}

func scenarioSamples() []*cohort.Sample {
	return []*cohort.Sample{
		{Name: "sample1", Mutations: []mutation.Identity{id(10, "A", "T"), id(20, "C", "G")}},
		{Name: "sample2", Mutations: []mutation.Identity{id(10, "A", "T")}},
	}
}

func presence(t *testing.T, samples []*cohort.Sample) *matrix.Presence {
	t.Helper()
	p, err := matrix.FromSamples(samples)
	require.NoError(t, err)
	return p
}

func TestJaccard_TwoSampleScenario(t *testing.T) {
	d, err := Jaccard(presence(t, scenarioSamples()))
	require.NoError(t, err)

	assert.Equal(t, []string{"sample1", "sample2"}, d.Labels())
	assert.InDelta(t, 0.5, d.At(0, 1), 1e-12)

	v, ok := d.Between("sample2", "sample1")
	require.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-12)

	_, ok = d.Between("sample1", "nobody")
	assert.False(t, ok)
}

func cohortOf(n int) []*cohort.Sample {
	samples := make([]*cohort.Sample, n)
	for i := range n {
		s := &cohort.Sample{Name: fmt.Sprintf("s%02d", i)}
		for k := range 30 {
			if (k*7+i*3)%(i+2) == 0 {
				s.Mutations = append(s.Mutations, id(int64(k*10), "A", "G"))
			}
		}
		samples[i] = s
	}
	return samples
}

func TestJaccard_SymmetricZeroDiagonal(t *testing.T) {
	d, err := Jaccard(presence(t, cohortOf(12)))
	require.NoError(t, err)

	for i := range d.Len() {
		assert.Zero(t, d.At(i, i))
		for j := range d.Len() {
			assert.Equal(t, d.At(i, j), d.At(j, i))
			assert.GreaterOrEqual(t, d.At(i, j), 0.0)
			assert.LessOrEqual(t, d.At(i, j), 1.0)
		}
	}
}

func TestJaccard_IdenticalAndEmptySamples(t *testing.T) {
	samples := []*cohort.Sample{
		{Name: "a", Mutations: []mutation.Identity{id(1, "A", "G")}},
		{Name: "b", Mutations: []mutation.Identity{id(1, "A", "G")}},
		{Name: "c"},
		{Name: "d"},
	}
	d, err := Jaccard(presence(t, samples))
	require.NoError(t, err)

	ab, _ := d.Between("a", "b")
	assert.Zero(t, ab)
	cd, _ := d.Between("c", "d")
	assert.Zero(t, cd)
	ac, _ := d.Between("a", "c")
	assert.Equal(t, 1.0, ac)
}

func TestCountDifference(t *testing.T) {
	d, err := CountDifference(scenarioSamples())
	require.NoError(t, err)
	v, _ := d.Between("sample1", "sample2")
	assert.Equal(t, 1.0, v)
}

func TestCountDifference_EqualCountsAreZero(t *testing.T) {
	// disjoint mutation sets of equal size: the count metric reports 0,
	// Jaccard reports 1
	samples := []*cohort.Sample{
		{Name: "a", Mutations: []mutation.Identity{id(1, "A", "G"), id(2, "C", "T")}},
		{Name: "b", Mutations: []mutation.Identity{id(3, "G", "A"), id(4, "T", "C")}},
	}

	count, err := CountDifference(samples)
	require.NoError(t, err)
	assert.Zero(t, count.At(0, 1))

	jac, err := Jaccard(presence(t, samples))
	require.NoError(t, err)
	assert.Equal(t, 1.0, jac.At(0, 1))
}

func TestCountDifference_IncludesExpansionRepeats(t *testing.T) {
	cfg := mutation.DefaultConfig()
	cfg.IndelExpansion = true
	r := mutation.NewResolver(cfg)

	call := &mutation.Call{
		Variant: &vcf.Variant{Chrom: "chr1", Pos: 10, Ref: "A", Alt: []string{"ATCG"}},
		Alleles: []mutation.Allele{{Index: 1, Seq: "ATCG", Type: mutation.TypeINDEL}},
	}
	samples := []*cohort.Sample{
		{Name: "ins", Mutations: r.Identities(call)},
		{Name: "snp", Mutations: []mutation.Identity{id(10, "A", "T")}},
	}

	d, err := CountDifference(samples)
	require.NoError(t, err)
	v, _ := d.Between("ins", "snp")
	assert.Equal(t, 2.0, v)
}

func TestEmptyInput(t *testing.T) {
	one := scenarioSamples()[:1]

	_, err := CountDifference(one)
	assert.True(t, errors.Is(err, ErrEmptyInput))

	_, err = Jaccard(presence(t, one))
	assert.True(t, errors.Is(err, ErrEmptyInput))

	_, err = Compute(MetricJaccard, nil, nil)
	assert.True(t, errors.Is(err, ErrEmptyInput))
}

func TestCompute(t *testing.T) {
	samples := scenarioSamples()

	d, err := Compute(MetricJaccard, samples, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, d.At(0, 1), 1e-12)

	d, err = Compute(MetricCount, samples, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, d.At(0, 1))

	_, err = Compute(Metric("hamming"), samples, nil)
	assert.Error(t, err)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("COUNT")
	require.NoError(t, err)
	assert.Equal(t, MetricCount, m)

	m, err = ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricJaccard, m)

	_, err = ParseMetric("euclidean")
	assert.Error(t, err)
}

func TestNewMatrix(t *testing.T) {
	d, err := NewMatrix([]string{"a", "b"}, [][]float64{{0, 2}, {2, 0}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 2}, {2, 0}}, d.Dense())

	_, err = NewMatrix([]string{"a", "b"}, [][]float64{{0, 2}})
	assert.Error(t, err)
}
