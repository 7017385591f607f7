package engine

import (
	"encoding/json"
	"sort"

	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
)

// Measure names produced by the engine itself.
const (
	MeasureTransactions = "transactions"
)

// Number is a measure that may be absent. Absent is not the same as zero.
type Number struct {
	Value float64
	Valid bool
}

// Some wraps a present measure.
func Some(v float64) Number { return Number{Value: v, Valid: true} }

// None is the absent measure.
func None() Number { return Number{} }

// Or returns the value, or def when absent.
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// MarshalJSON encodes an absent measure as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// MarshalYAML encodes an absent measure as null.
func (n Number) MarshalYAML() (any, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Value, nil
}

// AggregateRow is one group: key values aligned with Aggregate.Keys and
// measures aligned with Aggregate.Measures.
type AggregateRow struct {
	Keys   []dataset.Value
	Values []Number
}

// Aggregate is the result of grouping: dimension keys mapped to measures.
// Missing lists columns the computation needed but the dataset lacks; when
// it is non-empty the aggregate has no rows.
type Aggregate struct {
	Keys     []string
	Measures []string
	Rows     []AggregateRow
	Missing  []string
}

func (a Aggregate) Len() int { return len(a.Rows) }

// Available reports whether every column the aggregate needed was present.
func (a Aggregate) Available() bool { return len(a.Missing) == 0 }

// Key returns the named key of row i, or null if the name is unknown.
func (a Aggregate) Key(i int, name string) dataset.Value {
	if k := indexOf(a.Keys, name); k >= 0 {
		return a.Rows[i].Keys[k]
	}
	return dataset.Null()
}

// Measure returns the named measure of row i, or None if the name is unknown.
func (a Aggregate) Measure(i int, name string) Number {
	if m := indexOf(a.Measures, name); m >= 0 {
		return a.Rows[i].Values[m]
	}
	return None()
}

// Total sums the present values of a measure across all rows.
func (a Aggregate) Total(measure string) Number {
	m := indexOf(a.Measures, measure)
	if m < 0 {
		return None()
	}
	var s moneySum
	for _, r := range a.Rows {
		if v := r.Values[m]; v.Valid {
			s.add(v.Value)
		}
	}
	return s.sum()
}

// SortByKey returns a copy ordered by the named key. The sort is stable and
// nulls sort last in both directions.
func SortByKey(a Aggregate, key string, ascending bool) (Aggregate, error) {
	k := indexOf(a.Keys, key)
	if k < 0 {
		return Aggregate{}, newError("sort", key, ErrUnknownKey)
	}
	out := a.clone()
	sort.SliceStable(out.Rows, func(i, j int) bool {
		x, y := out.Rows[i].Keys[k], out.Rows[j].Keys[k]
		if x.IsNull() || y.IsNull() {
			return !x.IsNull() && y.IsNull()
		}
		if ascending {
			return x.Compare(y) < 0
		}
		return x.Compare(y) > 0
	})
	return out, nil
}

func (a Aggregate) clone() Aggregate {
	out := Aggregate{
		Keys:     append([]string(nil), a.Keys...),
		Measures: append([]string(nil), a.Measures...),
		Rows:     append([]AggregateRow(nil), a.Rows...),
		Missing:  append([]string(nil), a.Missing...),
	}
	return out
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// missingColumns lists the names that view does not declare, skipping blanks.
func missingColumns(view *dataset.Dataset, names ...string) []string {
	var out []string
	for _, n := range names {
		if n != "" && !view.HasColumn(n) {
			out = append(out, n)
		}
	}
	return out
}
