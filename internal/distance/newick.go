package distance

import (
	"strconv"
	"strings"
)

// Newick renders a linkage as a Newick tree. The height of a cluster is its
// merge distance and each branch length is the parent height minus the child
// height, so tree viewers draw the same dendrogram as the linkage.
func Newick(merges []Merge, labels []string) string {
	n := len(labels)
	if n == 0 {
		return ";"
	}
	if n == 1 {
		return quoteLabel(labels[0]) + ";"
	}

	height := func(id int) float64 {
		if id < n {
			return 0
		}
		return merges[id-n].Distance
	}

	var b strings.Builder
	var write func(id int)
	write = func(id int) {
		if id < n {
			b.WriteString(quoteLabel(labels[id]))
			return
		}
		m := merges[id-n]
		b.WriteByte('(')
		for i, child := range []int{m.A, m.B} {
			if i > 0 {
				b.WriteByte(',')
			}
			write(child)
			b.WriteByte(':')
			b.WriteString(strconv.FormatFloat(m.Distance-height(child), 'g', -1, 64))
		}
		b.WriteByte(')')
	}

	write(n + len(merges) - 1)
	b.WriteByte(';')
	return b.String()
}

// quoteLabel quotes labels containing Newick punctuation or whitespace.
func quoteLabel(s string) string {
	if s != "" && !strings.ContainsAny(s, "()[]':;, \t") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
