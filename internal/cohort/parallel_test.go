package cohort

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-vcfdist/internal/mutation"
)

func makeItems(t *testing.T, n int) <-chan WorkItem {
	t.Helper()
	dir := t.TempDir()
	ch := make(chan WorkItem, n)
	for i := range n {
		path := writeVCF(t, dir, fmt.Sprintf("s%03d.vcf", i),
			fmt.Sprintf("chr1\t%d\t.\tA\tT\t99\tPASS\t.\tGT\t1", 100+i))
		ch <- WorkItem{Seq: i, Path: path}
	}
	close(ch)
	return ch
}

func TestParallelRead_OrderPreservation(t *testing.T) {
	l := NewLoader(Config{Mutation: mutation.DefaultConfig()})

	results := l.ParallelRead(makeItems(t, 60), 8)

	var collected []int
	err := OrderedCollect(results, func(r WorkResult) error {
		require.NoError(t, r.Err)
		require.Len(t, r.Sample.Mutations, 1)
		assert.Equal(t, int64(100+r.Seq), r.Sample.Mutations[0].Pos)
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, collected, 60)
	for i, seq := range collected {
		assert.Equal(t, i, seq, "result %d out of order", i)
	}
}

func TestParallelRead_SingleWorker(t *testing.T) {
	l := NewLoader(Config{Mutation: mutation.DefaultConfig()})

	var count int
	err := OrderedCollect(l.ParallelRead(makeItems(t, 10), 1), func(r WorkResult) error {
		require.NoError(t, r.Err)
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestParallelRead_EmptyInput(t *testing.T) {
	l := NewLoader(Config{Mutation: mutation.DefaultConfig()})

	items := make(chan WorkItem)
	close(items)

	var count int
	err := OrderedCollect(l.ParallelRead(items, 4), func(r WorkResult) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOrderedCollect_EarlyError(t *testing.T) {
	results := make(chan WorkResult, 10)
	for i := 9; i >= 0; i-- {
		results <- WorkResult{Seq: i}
	}
	close(results)

	var seen []int
	err := OrderedCollect(results, func(r WorkResult) error {
		seen = append(seen, r.Seq)
		if r.Seq == 4 {
			return fmt.Errorf("stop at 4")
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen)
}
