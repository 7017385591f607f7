package engine

import (
	xxhash "github.com/cespare/xxhash/v2"

	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
)

// GroupSum sums measure per distinct tuple of dims values. Nulls form their
// own group and groups keep first-seen order. A group none of whose rows has
// a present measure gets an absent sum. If any named column is missing the
// result is empty and lists it in Missing.
func GroupSum(view *dataset.Dataset, dims []string, measure string) Aggregate {
	agg := Aggregate{
		Keys:     append([]string(nil), dims...),
		Measures: []string{measure},
		Missing:  missingColumns(view, append(append([]string(nil), dims...), measure)...),
	}
	if !agg.Available() {
		return agg
	}

	idx := newGroupIndex()
	var sums []moneySum
	for i := 0; i < view.Len(); i++ {
		row := view.Row(i)
		g := idx.slot(keyOf(row, dims))
		if g == len(sums) {
			sums = append(sums, moneySum{})
		}
		if f, ok := row.Get(measure).Float(); ok {
			sums[g].add(f)
		}
	}

	agg.Rows = make([]AggregateRow, len(sums))
	for g, s := range sums {
		agg.Rows[g] = AggregateRow{Keys: idx.keys[g], Values: []Number{s.sum()}}
	}
	return agg
}

// GroupCount counts transactions per distinct tuple of dims values and
// reports the rule it applied. With a non-empty distinct column present in the
// view it counts distinct non-null values of that column (BasisOrderRef);
// when distinct is empty or absent from the view it counts rows (BasisRows).
// The measure is named MeasureTransactions.
func GroupCount(view *dataset.Dataset, dims []string, distinct string) (Aggregate, TransactionBasis) {
	useDistinct := distinct != "" && view.HasColumn(distinct)
	basis := BasisRows
	if useDistinct {
		basis = BasisOrderRef
	}
	agg := Aggregate{
		Keys:     append([]string(nil), dims...),
		Measures: []string{MeasureTransactions},
		Missing:  missingColumns(view, dims...),
	}
	if !agg.Available() {
		return agg, basis
	}

	idx := newGroupIndex()
	var counts []int
	var seen []map[string]struct{}
	for i := 0; i < view.Len(); i++ {
		row := view.Row(i)
		g := idx.slot(keyOf(row, dims))
		if g == len(counts) {
			counts = append(counts, 0)
			seen = append(seen, make(map[string]struct{}))
		}
		if !useDistinct {
			counts[g]++
			continue
		}
		v := row.Get(distinct)
		if v.IsNull() {
			continue
		}
		if _, dup := seen[g][v.Text()]; !dup {
			seen[g][v.Text()] = struct{}{}
			counts[g]++
		}
	}

	agg.Rows = make([]AggregateRow, len(counts))
	for g, c := range counts {
		agg.Rows[g] = AggregateRow{Keys: idx.keys[g], Values: []Number{Some(float64(c))}}
	}
	return agg, basis
}

func keyOf(row dataset.Row, dims []string) []dataset.Value {
	key := make([]dataset.Value, len(dims))
	for i, d := range dims {
		key[i] = row.Get(d)
	}
	return key
}

// groupIndex assigns dense ids to key tuples in first-seen order. Two keys
// are the same group when each position is null on both sides or has the
// same canonical text, which matches how filters compare values.
type groupIndex struct {
	buckets map[uint64][]int
	keys    [][]dataset.Value
}

func newGroupIndex() *groupIndex {
	return &groupIndex{buckets: make(map[uint64][]int)}
}

func (g *groupIndex) slot(key []dataset.Value) int {
	h := hashKey(key)
	for _, id := range g.buckets[h] {
		if sameKey(g.keys[id], key) {
			return id
		}
	}
	id := len(g.keys)
	g.keys = append(g.keys, key)
	g.buckets[h] = append(g.buckets[h], id)
	return id
}

func (g *groupIndex) lookup(key []dataset.Value) (int, bool) {
	for _, id := range g.buckets[hashKey(key)] {
		if sameKey(g.keys[id], key) {
			return id, true
		}
	}
	return 0, false
}

func hashKey(key []dataset.Value) uint64 {
	d := xxhash.New()
	for _, v := range key {
		if v.IsNull() {
			_, _ = d.Write([]byte{0})
			continue
		}
		_, _ = d.Write([]byte{1})
		_, _ = d.WriteString(v.Text())
		_, _ = d.Write([]byte{0xff})
	}
	return d.Sum64()
}

func sameKey(a, b []dataset.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].IsNull() != b[i].IsNull() {
			return false
		}
		if !a[i].IsNull() && a[i].Text() != b[i].Text() {
			return false
		}
	}
	return true
}
