// Package dashboard assembles every analytical section of a sales report
// from one filtered view and renders it for people or machines.
package dashboard

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
	"github.com/KaramelBytes/salesdash-cli/internal/engine"
)

// FilterColumns are the dimensions a report can be narrowed by, in display order.
var FilterColumns = []string{dataset.ColYear, dataset.ColBranch, dataset.ColCategory}

// Options shapes a report.
type Options struct {
	Source      string
	Sheet       string
	TopProducts int
	TrendDays   int
	// From and To bound the trend window; zero values select the trailing
	// TrendDays ending at the latest date in the view.
	From, To      time.Time
	CurrencyLabel string
	Locale        string
	Warnings      []string
}

// DefaultOptions matches the stock dashboard.
func DefaultOptions() Options {
	return Options{TopProducts: 10, TrendDays: 9, Locale: "en"}
}

// Report is the full dashboard for one file and one filter selection.
type Report struct {
	RunID        string         `json:"run_id" yaml:"run_id"`
	GeneratedAt  time.Time      `json:"generated_at" yaml:"generated_at"`
	Source       string         `json:"source" yaml:"source"`
	Sheet        string         `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Currency     string         `json:"currency,omitempty" yaml:"currency,omitempty"`
	TotalRows    int            `json:"total_rows" yaml:"total_rows"`
	FilteredRows int            `json:"filtered_rows" yaml:"filtered_rows"`
	Filters      []Filter       `json:"filters" yaml:"filters"`
	Summary      engine.Summary `json:"summary" yaml:"summary"`
	Years        YearSection    `json:"years" yaml:"years"`
	Trend        TrendSection   `json:"trend" yaml:"trend"`
	Categories   Section        `json:"categories" yaml:"categories"`
	Products     Section        `json:"products" yaml:"products"`
	Branches     Section        `json:"branches" yaml:"branches"`
	Warnings     []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	locale string
}

// Filter is one selectable dimension: what is selected and what could be.
type Filter struct {
	Column   string   `json:"column" yaml:"column"`
	Selected string   `json:"selected" yaml:"selected"`
	Choices  []string `json:"choices" yaml:"choices"`
}

// YearCard is one year's totals. Either measure is absent when its side of
// the yearly merge had no row for the year.
type YearCard struct {
	Year         string        `json:"year" yaml:"year"`
	Sales        engine.Number `json:"sales" yaml:"sales"`
	Transactions engine.Number `json:"transactions" yaml:"transactions"`
}

type YearSection struct {
	Cards   []YearCard              `json:"cards" yaml:"cards"`
	Basis   engine.TransactionBasis `json:"transaction_basis,omitempty" yaml:"transaction_basis,omitempty"`
	Missing []string                `json:"missing,omitempty" yaml:"missing,omitempty"`
}

type TrendPoint struct {
	Date  string        `json:"date" yaml:"date"`
	Sales engine.Number `json:"sales" yaml:"sales"`
}

type TrendSection struct {
	From    string       `json:"from,omitempty" yaml:"from,omitempty"`
	To      string       `json:"to,omitempty" yaml:"to,omitempty"`
	Points  []TrendPoint `json:"points" yaml:"points"`
	Empty   bool         `json:"empty" yaml:"empty"`
	Missing []string     `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Available reports whether the trend's columns exist in the dataset.
func (t TrendSection) Available() bool { return len(t.Missing) == 0 }

// Item is one ranked group. Share is the item's fraction of the section total
// and is absent when the total is absent or zero.
type Item struct {
	Label string        `json:"label" yaml:"label"`
	Sales engine.Number `json:"sales" yaml:"sales"`
	Share engine.Number `json:"share" yaml:"share"`
}

// Section is a ranked breakdown of sales by one dimension.
type Section struct {
	Title   string   `json:"title" yaml:"title"`
	Items   []Item   `json:"items" yaml:"items"`
	Empty   bool     `json:"empty" yaml:"empty"`
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Available reports whether the section's columns exist in the dataset.
func (s Section) Available() bool { return len(s.Missing) == 0 }

// Build filters base by spec and derives every section from the same view.
// Choices always come from base so they do not shrink as filters narrow.
func Build(base *dataset.Dataset, spec engine.FilterSpec, opt Options) (*Report, error) {
	view := engine.Apply(base, spec)
	slog.Debug("filter applied", "source", opt.Source, "rows", base.Len(), "filtered", view.Len())

	rep := &Report{
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		Source:       opt.Source,
		Sheet:        opt.Sheet,
		Currency:     opt.CurrencyLabel,
		TotalRows:    base.Len(),
		FilteredRows: view.Len(),
		Summary:      engine.Summarize(view),
		Warnings:     append([]string(nil), opt.Warnings...),
		locale:       opt.Locale,
	}
	for _, col := range FilterColumns {
		rep.Filters = append(rep.Filters, Filter{
			Column:   col,
			Selected: spec.Selected(col),
			Choices:  engine.Choices(base, col),
		})
	}

	var err error
	if rep.Years, err = yearly(view); err != nil {
		return nil, err
	}
	if rep.Trend, err = trend(view, opt); err != nil {
		return nil, err
	}
	switch {
	case !rep.Trend.Empty || !rep.Trend.Available():
	case rep.Trend.From == "":
		rep.Warnings = append(rep.Warnings, "No dated rows in the current selection.")
	default:
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("No data found between %s and %s.", rep.Trend.From, rep.Trend.To))
	}
	if rep.Categories, err = ranked(view, "Top Categories by Sales", dataset.ColCategory, 0); err != nil {
		return nil, err
	}
	top := opt.TopProducts
	if top <= 0 {
		top = 10
	}
	if rep.Products, err = ranked(view, fmt.Sprintf("Top %d Products by Sales", top), dataset.ColProduct, top); err != nil {
		return nil, err
	}
	if rep.Branches, err = ranked(view, "Sales by Branch", dataset.ColBranch, 0); err != nil {
		return nil, err
	}
	return rep, nil
}

// yearly merges per-year sales with per-year transactions and orders the
// cards by year. Rows without a year get no card.
func yearly(view *dataset.Dataset) (YearSection, error) {
	sums := engine.GroupSum(view, []string{dataset.ColYear}, dataset.ColAmount)
	if !sums.Available() {
		return YearSection{Missing: sums.Missing}, nil
	}
	counts, basis := engine.GroupCount(view, []string{dataset.ColYear}, dataset.ColOrderRef)
	merged, err := engine.Merge(sums, counts, []string{dataset.ColYear})
	if err != nil {
		return YearSection{}, fmt.Errorf("yearly summary: %w", err)
	}
	merged, err = engine.SortByKey(merged, dataset.ColYear, true)
	if err != nil {
		return YearSection{}, fmt.Errorf("yearly summary: %w", err)
	}
	sec := YearSection{Basis: basis}
	for i := 0; i < merged.Len(); i++ {
		y := merged.Key(i, dataset.ColYear)
		if y.IsNull() {
			continue
		}
		sec.Cards = append(sec.Cards, YearCard{
			Year:         y.Text(),
			Sales:        merged.Measure(i, dataset.ColAmount),
			Transactions: merged.Measure(i, engine.MeasureTransactions),
		})
	}
	return sec, nil
}

func trend(view *dataset.Dataset, opt Options) (TrendSection, error) {
	from, to := opt.From, opt.To
	if from.IsZero() || to.IsZero() {
		days := opt.TrendDays
		if days <= 0 {
			days = 9
		}
		start, end, ok := engine.TrailingWindow(view, days)
		if !ok {
			return TrendSection{Empty: true, Missing: missing(view, dataset.ColAmount)}, nil
		}
		switch {
		case from.IsZero() && to.IsZero():
			from, to = start, end
		case from.IsZero():
			from = to.AddDate(0, 0, -(days - 1))
		default:
			to = end
		}
		// One bound was given and the other derived past it.
		if dataset.CalendarDate(from).After(dataset.CalendarDate(to)) {
			return TrendSection{
				From:    from.Format(time.DateOnly),
				To:      to.Format(time.DateOnly),
				Empty:   true,
				Missing: missing(view, dataset.ColAmount),
			}, nil
		}
	}
	agg, err := engine.BucketByDate(view, from, to, dataset.ColAmount)
	if err != nil {
		return TrendSection{}, fmt.Errorf("sales trend: %w", err)
	}
	sec := TrendSection{
		From:    from.Format(time.DateOnly),
		To:      to.Format(time.DateOnly),
		Missing: agg.Missing,
	}
	for i := 0; i < agg.Len(); i++ {
		sec.Points = append(sec.Points, TrendPoint{
			Date:  agg.Key(i, dataset.ColDate).Text(),
			Sales: agg.Measure(i, dataset.ColAmount),
		})
	}
	sec.Empty = len(sec.Points) == 0
	return sec, nil
}

// ranked sums sales by column and orders groups by sales, largest first.
// limit <= 0 keeps every group.
func ranked(view *dataset.Dataset, title, column string, limit int) (Section, error) {
	sec := Section{Title: title}
	agg := engine.GroupSum(view, []string{column}, dataset.ColAmount)
	if !agg.Available() {
		sec.Missing = agg.Missing
		sec.Empty = true
		return sec, nil
	}
	if limit <= 0 {
		limit = agg.Len()
	}
	top, err := engine.TopN(agg, dataset.ColAmount, limit)
	if err != nil {
		return Section{}, fmt.Errorf("%s: %w", title, err)
	}
	total := agg.Total(dataset.ColAmount)
	for i := 0; i < top.Len(); i++ {
		v := top.Measure(i, dataset.ColAmount)
		it := Item{Label: label(top.Key(i, column)), Sales: v}
		if v.Valid && total.Valid && total.Value != 0 {
			it.Share = engine.Some(v.Value / total.Value)
		}
		sec.Items = append(sec.Items, it)
	}
	sec.Empty = len(sec.Items) == 0
	return sec, nil
}

func label(v dataset.Value) string {
	if v.IsNull() {
		return "(blank)"
	}
	return v.Text()
}

func missing(view *dataset.Dataset, cols ...string) []string {
	var out []string
	for _, c := range cols {
		if !view.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}
