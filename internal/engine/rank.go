package engine

import "sort"

// TopN returns the n groups with the largest values of measure, largest
// first. Ties keep their original group order and absent values rank last.
// n <= 0 yields an empty aggregate; n larger than the aggregate yields all of
// it. Only an unknown measure is an error.
func TopN(a Aggregate, measure string, n int) (Aggregate, error) {
	m := indexOf(a.Measures, measure)
	if m < 0 {
		return Aggregate{}, newError("top_n", measure, ErrUnknownMeasure)
	}
	out := a.clone()
	if n <= 0 {
		out.Rows = out.Rows[:0]
		return out, nil
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		x, y := out.Rows[i].Values[m], out.Rows[j].Values[m]
		if !x.Valid || !y.Valid {
			return x.Valid && !y.Valid
		}
		return x.Value > y.Value
	})
	if n < len(out.Rows) {
		out.Rows = out.Rows[:n]
	}
	return out, nil
}
