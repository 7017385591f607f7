package engine

import "github.com/KaramelBytes/salesdash-cli/internal/dataset"

// Merge full-outer-joins a and b on the keys named in on. Every name in on
// must be a key of both sides, and the two sides must not share a measure
// name. The result is keyed by on and carries a's measures followed by b's.
//
// Rows of a come first in a's order, each paired with every matching row of
// b; rows of b with no match in a follow in b's order. The side that had no
// match gets absent measures. Callers that need a particular order must sort.
func Merge(a, b Aggregate, on []string) (Aggregate, error) {
	if len(on) == 0 {
		return Aggregate{}, newError("merge", "", ErrUnknownKey)
	}
	ak, err := keyPositions(a, on)
	if err != nil {
		return Aggregate{}, err
	}
	bk, err := keyPositions(b, on)
	if err != nil {
		return Aggregate{}, err
	}
	for _, m := range b.Measures {
		if indexOf(a.Measures, m) >= 0 {
			return Aggregate{}, newError("merge", m, ErrDuplicateMeasure)
		}
	}

	out := Aggregate{
		Keys:     append([]string(nil), on...),
		Measures: append(append([]string(nil), a.Measures...), b.Measures...),
		Missing:  append(append([]string(nil), a.Missing...), b.Missing...),
	}

	// Index b by its join key, keeping every matching row per key.
	idx := newGroupIndex()
	var matches [][]int
	for j, r := range b.Rows {
		g := idx.slot(project(r.Keys, bk))
		if g == len(matches) {
			matches = append(matches, nil)
		}
		matches[g] = append(matches[g], j)
	}
	used := make([]bool, len(b.Rows))

	for _, r := range a.Rows {
		key := project(r.Keys, ak)
		g, ok := idx.lookup(key)
		if !ok {
			out.Rows = append(out.Rows, joined(key, r.Values, absent(len(b.Measures))))
			continue
		}
		for _, j := range matches[g] {
			used[j] = true
			out.Rows = append(out.Rows, joined(key, r.Values, b.Rows[j].Values))
		}
	}
	for j, r := range b.Rows {
		if !used[j] {
			out.Rows = append(out.Rows, joined(project(r.Keys, bk), absent(len(a.Measures)), r.Values))
		}
	}
	return out, nil
}

func keyPositions(a Aggregate, on []string) ([]int, error) {
	pos := make([]int, len(on))
	for i, k := range on {
		p := indexOf(a.Keys, k)
		if p < 0 {
			return nil, newError("merge", k, ErrUnknownKey)
		}
		pos[i] = p
	}
	return pos, nil
}

func project(keys []dataset.Value, pos []int) []dataset.Value {
	out := make([]dataset.Value, len(pos))
	for i, p := range pos {
		out[i] = keys[p]
	}
	return out
}

func absent(n int) []Number { return make([]Number, n) }

func joined(key []dataset.Value, left, right []Number) AggregateRow {
	vals := make([]Number, 0, len(left)+len(right))
	vals = append(vals, left...)
	vals = append(vals, right...)
	return AggregateRow{Keys: key, Values: vals}
}
