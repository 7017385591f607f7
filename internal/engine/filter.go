package engine

import (
	"strings"

	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
)

// All is the "no constraint" selection offered for every filterable column.
const All = "All"

// Constraint binds a column to one canonical text value.
type Constraint struct {
	Column string
	Value  string
}

// FilterSpec is a conjunction of equality constraints. The zero value
// imposes no restriction.
type FilterSpec struct {
	constraints []Constraint
}

// With returns a copy of f with column bound to value. An empty value or the
// All sentinel clears any existing constraint on the column.
func (f FilterSpec) With(column, value string) FilterSpec {
	value = strings.TrimSpace(value)
	out := FilterSpec{constraints: make([]Constraint, 0, len(f.constraints)+1)}
	for _, c := range f.constraints {
		if c.Column != column {
			out.constraints = append(out.constraints, c)
		}
	}
	if value != "" && value != All {
		out.constraints = append(out.constraints, Constraint{Column: column, Value: value})
	}
	return out
}

// Constraints returns the bound constraints in the order they were added.
func (f FilterSpec) Constraints() []Constraint {
	return append([]Constraint(nil), f.constraints...)
}

// Selected returns the bound value for column, or All.
func (f FilterSpec) Selected(column string) string {
	for _, c := range f.constraints {
		if c.Column == column {
			return c.Value
		}
	}
	return All
}

func (f FilterSpec) IsEmpty() bool { return len(f.constraints) == 0 }

// Apply returns a new view over the rows of ds whose canonical text matches
// every bound constraint. Constraints on columns the dataset lacks are
// ignored. The source dataset is never modified or returned, even when no
// constraint applies, and retained rows keep their order.
func Apply(ds *dataset.Dataset, spec FilterSpec) *dataset.Dataset {
	active := make([]Constraint, 0, len(spec.constraints))
	for _, c := range spec.constraints {
		if ds.HasColumn(c.Column) {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return ds.Select(func(dataset.Row) bool { return true })
	}
	return ds.Select(func(r dataset.Row) bool {
		for _, c := range active {
			v := r.Get(c.Column)
			if v.IsNull() || v.Text() != c.Value {
				return false
			}
		}
		return true
	})
}
