// Package dataset holds the immutable in-memory row collection that every
// analytical query reads from. Filtered views are Datasets too: they share the
// parent's column set and Row values, so identity and order are preserved.
package dataset

import "time"

// Canonical column names recognized by the engine.
const (
	ColDate     = "date"
	ColAmount   = "amount"
	ColOrderRef = "order_ref"
	ColBranch   = "branch"
	ColCategory = "category"
	ColProduct  = "product"
	// ColYear is derived from ColDate when rows are added.
	ColYear = "year"
)

// Row is one immutable record. ID is the row's position in the source file
// and identifies it across views.
type Row struct {
	ID    int
	cells map[string]Value
}

// NewRow copies cells into a new Row.
func NewRow(id int, cells map[string]Value) Row {
	cp := make(map[string]Value, len(cells))
	for k, v := range cells {
		cp[k] = v
	}
	return Row{ID: id, cells: cp}
}

// Get returns the value of a column, or null when the row lacks it.
func (r Row) Get(column string) Value { return r.cells[column] }

// Dataset is an ordered sequence of rows sharing a declared column set.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// New builds a Dataset over the given columns and rows.
func New(columns []string, rows []Row) *Dataset {
	d := &Dataset{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    rows,
	}
	for i, c := range d.columns {
		d.index[c] = i
	}
	return d
}

func (d *Dataset) Len() int { return len(d.rows) }

// Columns returns a copy of the declared column names in order.
func (d *Dataset) Columns() []string { return append([]string(nil), d.columns...) }

// HasColumn reports whether the column was declared at ingestion.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Row returns the i-th row of this dataset.
func (d *Dataset) Row(i int) Row { return d.rows[i] }

// Rows returns a copy of the row slice; the rows themselves are shared.
func (d *Dataset) Rows() []Row { return append([]Row(nil), d.rows...) }

// Value is shorthand for d.Row(i).Get(column).
func (d *Dataset) Value(i int, column string) Value { return d.rows[i].cells[column] }

// Select returns a view holding the rows for which keep returns true, in order.
func (d *Dataset) Select(keep func(Row) bool) *Dataset {
	out := make([]Row, 0, len(d.rows))
	for _, r := range d.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Dataset{columns: d.columns, index: d.index, rows: out}
}

// Builder accumulates rows for a new Dataset and derives the year column.
type Builder struct {
	columns []string
	rows    []Row
}

// NewBuilder starts a Dataset with the given source columns. The year column
// is appended when date is among them.
func NewBuilder(columns []string) *Builder {
	cols := append([]string(nil), columns...)
	hasDate, hasYear := false, false
	for _, c := range cols {
		switch c {
		case ColDate:
			hasDate = true
		case ColYear:
			hasYear = true
		}
	}
	if hasDate && !hasYear {
		cols = append(cols, ColYear)
	}
	return &Builder{columns: cols}
}

// Add appends a row. Its year is taken from the date cell, or null when the
// date did not parse.
func (b *Builder) Add(cells map[string]Value) {
	r := NewRow(len(b.rows), cells)
	if t, ok := r.cells[ColDate].Time(); ok {
		r.cells[ColYear] = Number(float64(t.Year()))
	} else {
		r.cells[ColYear] = Null()
	}
	b.rows = append(b.rows, r)
}

// Build returns the finished Dataset. The builder must not be reused.
func (b *Builder) Build() *Dataset { return New(b.columns, b.rows) }

// CalendarDate truncates t to midnight in its own location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
