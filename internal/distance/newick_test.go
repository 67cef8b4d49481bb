package distance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewick(t *testing.T) {
	tests := []struct {
		name   string
		merges []Merge
		labels []string
		want   string
	}{
		{
			name:   "two samples",
			merges: []Merge{{0, 1, 0.5, 2}},
			labels: []string{"sample1", "sample2"},
			want:   "(sample1:0.5,sample2:0.5);",
		},
		{
			name:   "nested",
			merges: []Merge{{0, 1, 1, 2}, {2, 3, 2, 3}},
			labels: []string{"a", "b", "c"},
			want:   "(c:2,(a:1,b:1):1);",
		},
		{
			name:   "quoted labels",
			merges: []Merge{{0, 1, 0.25, 2}},
			labels: []string{"tumor 1", "o'brien"},
			want:   "('tumor 1':0.25,'o''brien':0.25);",
		},
		{
			name:   "single sample",
			labels: []string{"only"},
			want:   "only;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Newick(tt.merges, tt.labels))
		})
	}
}

func TestNewick_ContainsEveryLabel(t *testing.T) {
	d, err := Jaccard(presence(t, cohortOf(8)))
	require.NoError(t, err)
	merges, err := Linkage(d, MethodComplete)
	require.NoError(t, err)

	tree := Newick(merges, d.Labels())
	assert.True(t, strings.HasSuffix(tree, ";"))
	assert.Equal(t, strings.Count(tree, "("), strings.Count(tree, ")"))
	for _, l := range d.Labels() {
		assert.Contains(t, tree, l+":")
	}
}
