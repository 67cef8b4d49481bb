package matrix

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-vcfdist/internal/cohort"
	"github.com/inodb/vibe-vcfdist/internal/mutation"
)

func id(pos int64, ref, alt string) mutation.Identity {
	return mutation.NewIdentity(pos, ref, alt)
}

func scenario() []Row {
	return []Row{
		{Name: "sample1", Identities: []mutation.Identity{id(10, "A", "T"), id(20, "C", "G")}},
		{Name: "sample2", Identities: []mutation.Identity{id(10, "A", "T")}},
	}
}

func TestBuild_TwoSampleScenario(t *testing.T) {
	p, err := Build(scenario())
	require.NoError(t, err)

	assert.Equal(t, []string{"sample1", "sample2"}, p.Samples())
	assert.Equal(t, []string{"10_A_T", "20_C_G"}, p.Keys())
	assert.Equal(t, [][]uint8{{1, 1}, {1, 0}}, p.Dense())
	assert.Equal(t, [][]uint8{{1, 1}, {1, 0}}, p.Transpose())

	assert.Equal(t, 1, p.At("sample1", "20_C_G"))
	assert.Equal(t, 0, p.At("sample2", "20_C_G"))
	assert.Equal(t, 0, p.At("sample3", "10_A_T"))
	assert.Equal(t, 0, p.At("sample1", "99_G_A"))

	assert.Equal(t, 2, p.Count(0))
	assert.Equal(t, 1, p.Count(1))
	assert.Equal(t, 2, p.Support(0))
	assert.Equal(t, 1, p.Support(1))
}

func TestBuild_OrderIndependent(t *testing.T) {
	rows := []Row{
		{Name: "c", Identities: []mutation.Identity{id(5, "A", "G"), id(300, "T", "TA")}},
		{Name: "a", Identities: []mutation.Identity{id(300, "T", "TA"), id(40, "C", "T")}},
		{Name: "b", Identities: []mutation.Identity{id(40, "C", "T"), id(5, "A", "G"), id(7, "G", "C")}},
		{Name: "d", Identities: nil},
	}

	want, err := Build(rows)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for range 20 {
		perm := make([]Row, len(rows))
		for i, j := range rng.Perm(len(rows)) {
			r := rows[j]
			ids := append([]mutation.Identity(nil), r.Identities...)
			rng.Shuffle(len(ids), func(a, b int) { ids[a], ids[b] = ids[b], ids[a] })
			perm[i] = Row{Name: r.Name, Identities: ids}
		}

		got, err := Build(perm)
		require.NoError(t, err)
		assert.Equal(t, want.Samples(), got.Samples())
		assert.Equal(t, want.Keys(), got.Keys())
		assert.Equal(t, want.Dense(), got.Dense())
	}
}

func TestBuild_NoAllZeroColumns(t *testing.T) {
	rows := []Row{
		{Name: "a", Identities: []mutation.Identity{id(1, "A", "G"), id(2, "C", "T")}},
		{Name: "b", Identities: []mutation.Identity{id(2, "C", "T"), id(3, "G", "A")}},
		{Name: "empty"},
	}
	p, err := Build(rows)
	require.NoError(t, err)

	require.Equal(t, 3, p.NumIdentities())
	for j := range p.NumIdentities() {
		assert.Positive(t, p.Support(j), "column %s", p.Keys()[j])
	}
	assert.Equal(t, []uint8{0, 0, 0}, p.Dense()[p.NumSamples()-1])
}

func TestBuild_DuplicatesCollapse(t *testing.T) {
	expanded := mutation.NewIdentity(100, "A", "ATCG")
	expanded.Offset = 0

	rows := []Row{
		{Name: "a", Identities: []mutation.Identity{id(10, "A", "T"), id(10, "A", "T"), expanded}},
	}
	p, err := Build(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"10_A_T", "100_A_ATCG0"}, p.Keys())
	assert.Equal(t, 2, p.Count(0))
}

func TestBuild_DuplicateSample(t *testing.T) {
	_, err := Build([]Row{{Name: "a"}, {Name: "a"}})
	assert.Error(t, err)
}

func TestFromSamples(t *testing.T) {
	samples := []*cohort.Sample{
		{Name: "sample2", Mutations: []mutation.Identity{id(10, "A", "T")}},
		{Name: "sample1", Mutations: []mutation.Identity{id(20, "C", "G"), id(10, "A", "T")}},
	}
	p, err := FromSamples(samples)
	require.NoError(t, err)
	assert.Equal(t, []string{"sample1", "sample2"}, p.Samples())
	assert.Equal(t, [][]uint8{{1, 1}, {1, 0}}, p.Dense())
}
