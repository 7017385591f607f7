package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
)

// BucketByDate sums measure per calendar date over rows whose date falls in
// [start, end], both ends inclusive and compared by calendar date only. Rows
// without a date are skipped. The result is keyed by the date column and
// sorted ascending. A missing date or measure column yields an empty
// aggregate with Missing set; start after end is ErrInvalidRange.
func BucketByDate(view *dataset.Dataset, start, end time.Time, measure string) (Aggregate, error) {
	lo, hi := dayKey(start), dayKey(end)
	if lo > hi {
		return Aggregate{}, newError("bucket_by_date", dataset.ColDate,
			fmt.Errorf("%w: %s is after %s", ErrInvalidRange, start.Format(time.DateOnly), end.Format(time.DateOnly)))
	}
	agg := Aggregate{
		Keys:     []string{dataset.ColDate},
		Measures: []string{measure},
		Missing:  missingColumns(view, dataset.ColDate, measure),
	}
	if !agg.Available() {
		return agg, nil
	}

	buckets := make(map[int]*moneySum)
	days := make(map[int]time.Time)
	for i := 0; i < view.Len(); i++ {
		t, ok := view.Value(i, dataset.ColDate).Time()
		if !ok {
			continue
		}
		k := dayKey(t)
		if k < lo || k > hi {
			continue
		}
		s, seen := buckets[k]
		if !seen {
			s = &moneySum{}
			buckets[k] = s
			days[k] = dataset.CalendarDate(t)
		}
		if f, ok := view.Value(i, measure).Float(); ok {
			s.add(f)
		}
	}

	order := make([]int, 0, len(buckets))
	for k := range buckets {
		order = append(order, k)
	}
	sort.Ints(order)
	agg.Rows = make([]AggregateRow, len(order))
	for i, k := range order {
		agg.Rows[i] = AggregateRow{
			Keys:   []dataset.Value{dataset.Date(days[k])},
			Values: []Number{buckets[k].sum()},
		}
	}
	return agg, nil
}

// DateSpan returns the earliest and latest dates present in the view.
// ok is false when no row has a date.
func DateSpan(view *dataset.Dataset) (first, last time.Time, ok bool) {
	for i := 0; i < view.Len(); i++ {
		t, has := view.Value(i, dataset.ColDate).Time()
		if !has {
			continue
		}
		if !ok || t.Before(first) {
			first = t
		}
		if !ok || t.After(last) {
			last = t
		}
		ok = true
	}
	return dataset.CalendarDate(first), dataset.CalendarDate(last), ok
}

// TrailingWindow returns the inclusive range of the last days calendar days
// ending at the view's latest date.
func TrailingWindow(view *dataset.Dataset, days int) (start, end time.Time, ok bool) {
	_, end, ok = DateSpan(view)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if days < 1 {
		days = 1
	}
	return end.AddDate(0, 0, -(days - 1)), end, true
}

func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
