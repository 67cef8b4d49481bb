package distance

import (
	"fmt"
	"math"
	"strings"
)

// Method selects how the distance between merged clusters is updated.
type Method string

const (
	MethodSingle   Method = "single"   // nearest member
	MethodComplete Method = "complete" // farthest member
	MethodAverage  Method = "average"  // UPGMA
	MethodWeighted Method = "weighted" // WPGMA
)

// ParseMethod validates a linkage method name.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(s)) {
	case MethodSingle:
		return MethodSingle, nil
	case MethodComplete:
		return MethodComplete, nil
	case MethodAverage, "":
		return MethodAverage, nil
	case MethodWeighted:
		return MethodWeighted, nil
	}
	return "", fmt.Errorf("unknown linkage method %q (want single, complete, average or weighted)", s)
}

// Merge is one step of a hierarchical clustering. Cluster ids below the
// number of samples are samples; id n+k is the cluster created by step k.
type Merge struct {
	A, B     int // merged cluster ids, A < B
	Distance float64
	Size     int // number of samples in the new cluster
}

// Linkage clusters the samples of d agglomeratively. It returns n-1 merges
// in the order they happen. Ties are broken on the lowest cluster ids, so the
// result is deterministic.
func Linkage(d *Matrix, method Method) ([]Merge, error) {
	n := d.Len()
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrEmptyInput, n)
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}

	// working distances between slots; slot i holds cluster ids[i]
	work := d.Dense()
	ids := make([]int, n)
	sizes := make([]int, n)
	active := make([]bool, n)
	for i := range n {
		ids[i] = i
		sizes[i] = 1
		active[i] = true
	}

	merges := make([]Merge, 0, n-1)
	for step := range n - 1 {
		a, b := -1, -1
		best := math.Inf(1)
		for i := range n {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				dist := work[i][j]
				if a < 0 || dist < best || (dist == best && lowerPair(ids[i], ids[j], ids[a], ids[b])) {
					a, b, best = i, j, dist
				}
			}
		}

		lo, hi := ids[a], ids[b]
		if lo > hi {
			lo, hi = hi, lo
		}
		merges = append(merges, Merge{A: lo, B: hi, Distance: best, Size: sizes[a] + sizes[b]})

		for k := range n {
			if !active[k] || k == a || k == b {
				continue
			}
			v := update(method, work[a][k], work[b][k], sizes[a], sizes[b])
			work[a][k], work[k][a] = v, v
		}

		ids[a] = n + step
		sizes[a] += sizes[b]
		active[b] = false
	}

	return merges, nil
}

// lowerPair orders unordered id pairs by their smaller then larger id.
func lowerPair(i, j, bi, bj int) bool {
	if i > j {
		i, j = j, i
	}
	if bi > bj {
		bi, bj = bj, bi
	}
	return i < bi || (i == bi && j < bj)
}

// update is the Lance-Williams recurrence for the supported methods.
func update(method Method, da, db float64, na, nb int) float64 {
	switch method {
	case MethodSingle:
		return math.Min(da, db)
	case MethodComplete:
		return math.Max(da, db)
	case MethodWeighted:
		return (da + db) / 2
	default:
		return (float64(na)*da + float64(nb)*db) / float64(na+nb)
	}
}

// LeafOrder returns the sample indices in dendrogram order, left to right.
func LeafOrder(merges []Merge, n int) []int {
	if n == 1 {
		return []int{0}
	}
	order := make([]int, 0, n)
	var walk func(id int)
	walk = func(id int) {
		if id < n {
			order = append(order, id)
			return
		}
		m := merges[id-n]
		walk(m.A)
		walk(m.B)
	}
	walk(n + len(merges) - 1)
	return order
}
