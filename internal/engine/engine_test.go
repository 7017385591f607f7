package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
	"github.com/KaramelBytes/salesdash-cli/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

type rec struct {
	date     time.Time
	amount   any
	branch   any
	category string
	product  string
	order    string
}

func cell(v any) dataset.Value {
	switch x := v.(type) {
	case nil:
		return dataset.Null()
	case float64:
		return dataset.Number(x)
	case int:
		return dataset.Number(float64(x))
	case string:
		return dataset.Text(x)
	case time.Time:
		return dataset.Date(x)
	default:
		panic("unsupported cell type")
	}
}

func build(t *testing.T, columns []string, recs []rec) *dataset.Dataset {
	t.Helper()
	b := dataset.NewBuilder(columns)
	for _, r := range recs {
		cells := map[string]dataset.Value{}
		for _, c := range columns {
			switch c {
			case dataset.ColDate:
				cells[c] = cell(r.date)
			case dataset.ColAmount:
				cells[c] = cell(r.amount)
			case dataset.ColBranch:
				cells[c] = cell(r.branch)
			case dataset.ColCategory:
				cells[c] = cell(r.category)
			case dataset.ColProduct:
				cells[c] = cell(r.product)
			case dataset.ColOrderRef:
				cells[c] = cell(r.order)
			}
		}
		b.Add(cells)
	}
	return b.Build()
}

// scenario is the three-row dataset used throughout the tests.
func scenario(t *testing.T) *dataset.Dataset {
	return build(t, []string{dataset.ColDate, dataset.ColAmount, dataset.ColBranch}, []rec{
		{date: day(2025, 11, 1), amount: 100, branch: "A"},
		{date: day(2025, 11, 2), amount: 50, branch: "B"},
		{date: day(2025, 11, 2), amount: 25, branch: "A"},
	})
}

func sales(t *testing.T) *dataset.Dataset {
	cols := []string{dataset.ColDate, dataset.ColAmount, dataset.ColBranch, dataset.ColCategory, dataset.ColProduct, dataset.ColOrderRef}
	return build(t, cols, []rec{
		{day(2024, 3, 1), 10.5, 101, "Coffee", "Latte", "o1"},
		{day(2024, 3, 1), 4.5, 101, "Coffee", "Espresso", "o1"},
		{day(2024, 6, 2), 20, "North", "Bakery", "Croissant", "o2"},
		{day(2025, 1, 5), 30, 101, "Coffee", "Latte", "o3"},
		{day(2025, 1, 6), nil, "North", "Bakery", "Muffin", "o4"},
		{time.Time{}, 7, nil, "Coffee", "Latte", ""},
	})
}

func ids(ds *dataset.Dataset) []int {
	out := make([]int, ds.Len())
	for i := range out {
		out[i] = ds.Row(i).ID
	}
	return out
}

func TestScenarioSummary(t *testing.T) {
	s := engine.Summarize(scenario(t))
	require.True(t, s.TotalAmount.Valid)
	assert.InDelta(t, 175, s.TotalAmount.Value, 1e-9)
	require.True(t, s.AverageAmount.Valid)
	assert.InDelta(t, 58.3333, s.AverageAmount.Value, 1e-3)
	assert.Equal(t, 3, s.TransactionCount)
	assert.Equal(t, engine.BasisRows, s.TransactionBasis)
}

func TestScenarioBuckets(t *testing.T) {
	agg, err := engine.BucketByDate(scenario(t), day(2025, 11, 1), day(2025, 11, 9), dataset.ColAmount)
	require.NoError(t, err)
	require.Equal(t, 2, agg.Len())
	assert.Equal(t, "2025-11-01", agg.Key(0, dataset.ColDate).Text())
	assert.Equal(t, engine.Some(100), agg.Measure(0, dataset.ColAmount))
	assert.Equal(t, "2025-11-02", agg.Key(1, dataset.ColDate).Text())
	assert.Equal(t, engine.Some(75), agg.Measure(1, dataset.ColAmount))
}

func TestApplyTextEquality(t *testing.T) {
	ds := sales(t)

	v := engine.Apply(ds, engine.FilterSpec{}.With(dataset.ColBranch, "101"))
	assert.Equal(t, []int{0, 1, 3}, ids(v))

	v = engine.Apply(ds, engine.FilterSpec{}.With(dataset.ColYear, "2024").With(dataset.ColCategory, "Coffee"))
	assert.Equal(t, []int{0, 1}, ids(v))

	v = engine.Apply(ds, engine.FilterSpec{}.With(dataset.ColCategory, "Tea"))
	assert.Equal(t, 0, v.Len())
	assert.Equal(t, 6, ds.Len(), "source dataset must not change")
}

func TestApplyIdempotentAndOrdered(t *testing.T) {
	ds := sales(t)
	specs := []engine.FilterSpec{
		{},
		engine.FilterSpec{}.With(dataset.ColBranch, "North"),
		engine.FilterSpec{}.With(dataset.ColYear, "2025"),
		engine.FilterSpec{}.With(dataset.ColCategory, "Coffee").With(dataset.ColYear, "2024"),
	}
	for _, spec := range specs {
		once := engine.Apply(ds, spec)
		twice := engine.Apply(once, spec)
		assert.Equal(t, ids(once), ids(twice))

		prev := -1
		for _, id := range ids(once) {
			assert.Greater(t, id, prev, "retained rows keep source order")
			assert.Less(t, id, ds.Len())
			prev = id
		}
	}
}

func TestApplyIgnoresAbsentColumnAndAll(t *testing.T) {
	ds := scenario(t)
	v := engine.Apply(ds, engine.FilterSpec{}.With(dataset.ColCategory, "Coffee"))
	assert.Equal(t, 3, v.Len())

	spec := engine.FilterSpec{}.With(dataset.ColBranch, "A").With(dataset.ColBranch, engine.All)
	assert.True(t, spec.IsEmpty())
	assert.Equal(t, engine.All, spec.Selected(dataset.ColBranch))
}

func TestApplyWithoutConstraintsReturnsNewView(t *testing.T) {
	ds := sales(t)
	for _, spec := range []engine.FilterSpec{
		{},
		engine.FilterSpec{}.With(dataset.ColBranch, engine.All),
		engine.FilterSpec{}.With(dataset.ColCategory, "Coffee").With(dataset.ColCategory, ""),
	} {
		v := engine.Apply(ds, spec)
		assert.NotSame(t, ds, v)
		assert.Equal(t, ids(ds), ids(v))
		assert.Equal(t, ds.Columns(), v.Columns())
	}

	scen := scenario(t)
	v := engine.Apply(scen, engine.FilterSpec{}.With(dataset.ColCategory, "Coffee"))
	assert.NotSame(t, scen, v, "constraints on absent columns still yield a new view")
	assert.Equal(t, scen.Len(), v.Len())
}

func TestSummarizeDistinctOrderRef(t *testing.T) {
	s := engine.Summarize(sales(t))
	assert.Equal(t, 4, s.TransactionCount)
	assert.Equal(t, engine.BasisOrderRef, s.TransactionBasis)
	assert.InDelta(t, 72, s.TotalAmount.Value, 1e-9)
	assert.InDelta(t, 72.0/5, s.AverageAmount.Value, 1e-9)
}

func TestSummarizeMissingAmount(t *testing.T) {
	ds := build(t, []string{dataset.ColDate, dataset.ColOrderRef}, []rec{
		{date: day(2025, 1, 1), order: "a"},
		{date: day(2025, 1, 2), order: "a"},
	})
	s := engine.Summarize(ds)
	assert.False(t, s.HasAmount)
	assert.False(t, s.TotalAmount.Valid)
	assert.False(t, s.AverageAmount.Valid)
	assert.Equal(t, 1, s.TransactionCount)
}

func TestEmptyView(t *testing.T) {
	v := engine.Apply(scenario(t), engine.FilterSpec{}.With(dataset.ColBranch, "Z"))
	s := engine.Summarize(v)
	assert.True(t, s.Empty)
	assert.False(t, s.TotalAmount.Valid)
	assert.False(t, s.AverageAmount.Valid)
	assert.Equal(t, 0, s.TransactionCount)

	agg := engine.GroupSum(v, []string{dataset.ColBranch}, dataset.ColAmount)
	assert.True(t, agg.Available())
	assert.Equal(t, 0, agg.Len())
}

func TestGroupSumMatchesTotal(t *testing.T) {
	ds := sales(t)
	for _, dims := range [][]string{{dataset.ColBranch}, {dataset.ColYear, dataset.ColCategory}, {dataset.ColProduct}} {
		agg := engine.GroupSum(ds, dims, dataset.ColAmount)
		assert.InDelta(t, engine.Summarize(ds).TotalAmount.Value, agg.Total(dataset.ColAmount).Value, 1e-9)
	}
}

func TestGroupSumNullGroupAndOrder(t *testing.T) {
	agg := engine.GroupSum(sales(t), []string{dataset.ColBranch}, dataset.ColAmount)
	require.Equal(t, 3, agg.Len())
	assert.Equal(t, "101", agg.Key(0, dataset.ColBranch).Text())
	assert.InDelta(t, 45, agg.Measure(0, dataset.ColAmount).Value, 1e-9)
	assert.Equal(t, "North", agg.Key(1, dataset.ColBranch).Text())
	assert.InDelta(t, 20, agg.Measure(1, dataset.ColAmount).Value, 1e-9)
	assert.True(t, agg.Key(2, dataset.ColBranch).IsNull(), "nulls form their own group")
	assert.InDelta(t, 7, agg.Measure(2, dataset.ColAmount).Value, 1e-9)
}

func TestGroupSumAbsentMeasureInGroup(t *testing.T) {
	agg := engine.GroupSum(sales(t), []string{dataset.ColProduct}, dataset.ColAmount)
	for i := 0; i < agg.Len(); i++ {
		if agg.Key(i, dataset.ColProduct).Text() == "Muffin" {
			assert.False(t, agg.Measure(i, dataset.ColAmount).Valid)
			return
		}
	}
	t.Fatal("Muffin group not found")
}

func TestGroupSumMissingColumn(t *testing.T) {
	agg := engine.GroupSum(scenario(t), []string{dataset.ColCategory}, dataset.ColAmount)
	assert.False(t, agg.Available())
	assert.Equal(t, []string{dataset.ColCategory}, agg.Missing)
	assert.Equal(t, 0, agg.Len())
}

func TestGroupCount(t *testing.T) {
	ds := sales(t)
	agg, basis := engine.GroupCount(ds, []string{dataset.ColYear}, dataset.ColOrderRef)
	assert.Equal(t, engine.BasisOrderRef, basis)
	require.Equal(t, 3, agg.Len())
	assert.Equal(t, engine.Some(2), agg.Measure(0, engine.MeasureTransactions))
	assert.Equal(t, engine.Some(2), agg.Measure(1, engine.MeasureTransactions))
	assert.True(t, agg.Key(2, dataset.ColYear).IsNull())
	assert.Equal(t, engine.Some(0), agg.Measure(2, engine.MeasureTransactions))

	rows, basis := engine.GroupCount(ds, []string{dataset.ColYear}, "")
	assert.Equal(t, engine.BasisRows, basis)
	assert.Equal(t, engine.Some(3), rows.Measure(0, engine.MeasureTransactions))
}

func TestGroupCountWithoutOrderRefCountsRows(t *testing.T) {
	ds := build(t, []string{dataset.ColDate, dataset.ColAmount}, []rec{
		{date: day(2025, 1, 1), amount: 1},
		{date: day(2025, 1, 2), amount: 2},
		{date: day(2024, 1, 3), amount: 3},
	})
	agg, basis := engine.GroupCount(ds, []string{dataset.ColYear}, dataset.ColOrderRef)
	assert.Equal(t, engine.BasisRows, basis, "absent distinct column falls back to rows")
	require.Equal(t, 2, agg.Len())
	assert.Equal(t, engine.Some(2), agg.Measure(0, engine.MeasureTransactions))
	assert.Equal(t, engine.Some(1), agg.Measure(1, engine.MeasureTransactions))
	assert.Equal(t, engine.Summarize(ds).TransactionBasis, basis)
}

func TestMergeOuterJoin(t *testing.T) {
	cols := []string{dataset.ColDate, dataset.ColAmount, dataset.ColOrderRef}
	ds := build(t, cols, []rec{
		{date: day(2024, 2, 1), amount: 10, order: "a"},
		{date: day(2025, 2, 1), amount: 5},
	})
	sums := engine.GroupSum(ds, []string{dataset.ColYear}, dataset.ColAmount)
	counts, _ := engine.GroupCount(engine.Apply(ds, engine.FilterSpec{}.With(dataset.ColYear, "2024")), []string{dataset.ColYear}, dataset.ColOrderRef)

	merged, err := engine.Merge(sums, counts, []string{dataset.ColYear})
	require.NoError(t, err)
	assert.Equal(t, []string{dataset.ColAmount, engine.MeasureTransactions}, merged.Measures)
	require.Equal(t, 2, merged.Len())

	assert.Equal(t, "2024", merged.Key(0, dataset.ColYear).Text())
	assert.Equal(t, engine.Some(10), merged.Measure(0, dataset.ColAmount))
	assert.Equal(t, engine.Some(1), merged.Measure(0, engine.MeasureTransactions))

	assert.Equal(t, "2025", merged.Key(1, dataset.ColYear).Text())
	assert.Equal(t, engine.Some(5), merged.Measure(1, dataset.ColAmount))
	assert.False(t, merged.Measure(1, engine.MeasureTransactions).Valid, "missing side is absent, not zero")

	flipped, err := engine.Merge(counts, sums, []string{dataset.ColYear})
	require.NoError(t, err)
	require.Equal(t, 2, flipped.Len())
	assert.Equal(t, "2025", flipped.Key(1, dataset.ColYear).Text())
	assert.False(t, flipped.Measure(1, engine.MeasureTransactions).Valid)
}

func TestMergeErrors(t *testing.T) {
	ds := sales(t)
	sums := engine.GroupSum(ds, []string{dataset.ColYear}, dataset.ColAmount)

	_, err := engine.Merge(sums, sums, []string{dataset.ColYear})
	assert.ErrorIs(t, err, engine.ErrDuplicateMeasure)

	counts, _ := engine.GroupCount(ds, []string{dataset.ColBranch}, dataset.ColOrderRef)
	_, err = engine.Merge(sums, counts, []string{dataset.ColYear})
	assert.ErrorIs(t, err, engine.ErrUnknownKey)

	var ee *engine.Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "merge", ee.Op)
	assert.Equal(t, dataset.ColYear, ee.Column)
}

func TestTopN(t *testing.T) {
	agg := engine.GroupSum(scenario(t), []string{dataset.ColBranch}, dataset.ColAmount)

	top, err := engine.TopN(agg, dataset.ColAmount, 10)
	require.NoError(t, err)
	require.Equal(t, 2, top.Len())
	assert.Equal(t, "A", top.Key(0, dataset.ColBranch).Text())
	assert.Equal(t, "B", top.Key(1, dataset.ColBranch).Text())

	none, err := engine.TopN(agg, dataset.ColAmount, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())

	_, err = engine.TopN(agg, "sales", 3)
	assert.ErrorIs(t, err, engine.ErrUnknownMeasure)
}

func TestTopNThreeGroupsStableAndAbsentLast(t *testing.T) {
	agg := engine.GroupSum(sales(t), []string{dataset.ColProduct}, dataset.ColAmount)
	top, err := engine.TopN(agg, dataset.ColAmount, 10)
	require.NoError(t, err)
	require.Equal(t, 4, top.Len())

	var got []string
	for i := 0; i < top.Len(); i++ {
		got = append(got, top.Key(i, dataset.ColProduct).Text())
	}
	assert.Equal(t, []string{"Latte", "Croissant", "Espresso", "Muffin"}, got)

	ties := engine.Aggregate{
		Keys:     []string{"k"},
		Measures: []string{"sales"},
		Rows: []engine.AggregateRow{
			{Keys: []dataset.Value{dataset.Text("x")}, Values: []engine.Number{engine.Some(5)}},
			{Keys: []dataset.Value{dataset.Text("y")}, Values: []engine.Number{engine.Some(9)}},
			{Keys: []dataset.Value{dataset.Text("z")}, Values: []engine.Number{engine.Some(5)}},
		},
	}
	top, err = engine.TopN(ties, "sales", 3)
	require.NoError(t, err)
	assert.Equal(t, "y", top.Key(0, "k").Text())
	assert.Equal(t, "x", top.Key(1, "k").Text())
	assert.Equal(t, "z", top.Key(2, "k").Text())
	assert.Equal(t, "x", ties.Key(0, "k").Text(), "input is not reordered")
}

func TestBucketByDateInclusiveBounds(t *testing.T) {
	var recs []rec
	for d := 1; d <= 10; d++ {
		recs = append(recs, rec{date: day(2025, 11, 11-d).Add(15 * time.Hour), amount: d})
	}
	recs = append(recs, rec{amount: 99})
	ds := build(t, []string{dataset.ColDate, dataset.ColAmount}, recs)

	agg, err := engine.BucketByDate(ds, day(2025, 11, 1), day(2025, 11, 9), dataset.ColAmount)
	require.NoError(t, err)
	require.Equal(t, 9, agg.Len())
	assert.Equal(t, "2025-11-01", agg.Key(0, dataset.ColDate).Text())
	assert.Equal(t, "2025-11-09", agg.Key(8, dataset.ColDate).Text())
	for i := 1; i < agg.Len(); i++ {
		assert.Negative(t, agg.Key(i-1, dataset.ColDate).Compare(agg.Key(i, dataset.ColDate)))
	}
	assert.InDelta(t, 54, agg.Total(dataset.ColAmount).Value, 1e-9, "the 2025-11-10 row and the undated row are excluded")
}

func TestBucketByDateSoftAndErrors(t *testing.T) {
	ds := build(t, []string{dataset.ColDate}, []rec{{date: day(2025, 1, 1)}})
	agg, err := engine.BucketByDate(ds, day(2025, 1, 1), day(2025, 1, 2), dataset.ColAmount)
	require.NoError(t, err)
	assert.Equal(t, []string{dataset.ColAmount}, agg.Missing)

	_, err = engine.BucketByDate(ds, day(2025, 1, 2), day(2025, 1, 1), dataset.ColAmount)
	assert.ErrorIs(t, err, engine.ErrInvalidRange)
}

func TestTrailingWindow(t *testing.T) {
	start, end, ok := engine.TrailingWindow(scenario(t), 9)
	require.True(t, ok)
	assert.Equal(t, day(2025, 10, 25), start)
	assert.Equal(t, day(2025, 11, 2), end)

	empty := engine.Apply(scenario(t), engine.FilterSpec{}.With(dataset.ColBranch, "none"))
	_, _, ok = engine.TrailingWindow(empty, 9)
	assert.False(t, ok)
}

func TestChoices(t *testing.T) {
	ds := sales(t)
	assert.Equal(t, []string{engine.All, "2024", "2025"}, engine.Choices(ds, dataset.ColYear))
	assert.Equal(t, []string{engine.All, "101", "North"}, engine.Choices(ds, dataset.ColBranch))
	assert.Equal(t, []string{engine.All}, engine.Choices(scenario(t), dataset.ColCategory))
}

func TestSortByKey(t *testing.T) {
	agg := engine.GroupSum(sales(t), []string{dataset.ColYear}, dataset.ColAmount)
	desc, err := engine.SortByKey(agg, dataset.ColYear, false)
	require.NoError(t, err)
	assert.Equal(t, "2025", desc.Key(0, dataset.ColYear).Text())
	assert.Equal(t, "2024", desc.Key(1, dataset.ColYear).Text())
	assert.True(t, desc.Key(2, dataset.ColYear).IsNull())

	_, err = engine.SortByKey(agg, dataset.ColBranch, true)
	assert.ErrorIs(t, err, engine.ErrUnknownKey)
}
