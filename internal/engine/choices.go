package engine

import (
	"sort"

	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
)

// Choices lists the selectable values for column: All followed by the
// distinct non-null canonical texts in value order. Call it on the unfiltered
// dataset. A missing column yields only All.
func Choices(ds *dataset.Dataset, column string) []string {
	out := []string{All}
	if !ds.HasColumn(column) {
		return out
	}
	seen := make(map[string]struct{})
	var vals []dataset.Value
	for i := 0; i < ds.Len(); i++ {
		v := ds.Value(i, column)
		if v.IsNull() {
			continue
		}
		if _, dup := seen[v.Text()]; dup {
			continue
		}
		seen[v.Text()] = struct{}{}
		vals = append(vals, v)
	}
	sort.SliceStable(vals, func(i, j int) bool { return vals[i].Compare(vals[j]) < 0 })
	for _, v := range vals {
		out = append(out, v.Text())
	}
	return out
}
