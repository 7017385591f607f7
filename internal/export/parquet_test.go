package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
	"github.com/KaramelBytes/salesdash-cli/internal/engine"
)

func sales() *dataset.Dataset {
	b := dataset.NewBuilder([]string{dataset.ColDate, dataset.ColAmount, dataset.ColOrderRef, dataset.ColBranch})
	add := func(amt dataset.Value, ref string, branch dataset.Value) {
		b.Add(map[string]dataset.Value{
			dataset.ColDate:     dataset.Date(time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)),
			dataset.ColAmount:   amt,
			dataset.ColOrderRef: dataset.Text(ref),
			dataset.ColBranch:   branch,
		})
	}
	add(dataset.Number(10), "o1", dataset.Text("North"))
	add(dataset.Number(5), "o1", dataset.Text("North"))
	add(dataset.Number(7), "o2", dataset.Null())
	add(dataset.Null(), "o3", dataset.Text("South"))
	return b.Build()
}

func readBack(t *testing.T, data []byte) arrow.Table {
	t.Helper()
	pq, err := file.NewParquetReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = pq.Close() })
	fr, err := pqarrow.NewFileReader(pq, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	require.NoError(t, err)
	table, err := fr.ReadTable(context.Background())
	require.NoError(t, err)
	t.Cleanup(table.Release)
	return table
}

func TestBreakdown(t *testing.T) {
	agg, err := Breakdown(sales(), []string{dataset.ColBranch})
	require.NoError(t, err)
	assert.Equal(t, []string{dataset.ColBranch}, agg.Keys)
	assert.Equal(t, []string{dataset.ColAmount, engine.MeasureTransactions}, agg.Measures)
	require.Equal(t, 3, agg.Len())

	assert.Equal(t, "North", agg.Rows[0].Keys[0].Text())
	assert.Equal(t, engine.Some(15), agg.Rows[0].Values[0])
	assert.Equal(t, engine.Some(1), agg.Rows[0].Values[1])
	assert.True(t, agg.Rows[1].Keys[0].IsNull())
	assert.Equal(t, engine.None(), agg.Rows[2].Values[0])
}

func TestBreakdownUnknownColumn(t *testing.T) {
	_, err := Breakdown(sales(), []string{dataset.ColCategory})
	assert.ErrorContains(t, err, "unknown columns category")
}

func TestWriteRoundTrip(t *testing.T) {
	agg, err := Breakdown(sales(), []string{dataset.ColBranch})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, agg, DefaultOptions()))
	table := readBack(t, buf.Bytes())

	assert.EqualValues(t, 3, table.NumRows())
	require.EqualValues(t, 3, table.NumCols())
	assert.Equal(t, dataset.ColBranch, table.Schema().Field(0).Name)
	assert.Equal(t, dataset.ColAmount, table.Schema().Field(1).Name)

	branches := table.Column(0).Data().Chunk(0).(*array.String)
	assert.Equal(t, "North", branches.Value(0))
	assert.True(t, branches.IsNull(1))
	assert.Equal(t, "South", branches.Value(2))

	amounts := table.Column(1).Data().Chunk(0).(*array.Float64)
	assert.InDelta(t, 15, amounts.Value(0), 1e-9)
	assert.InDelta(t, 7, amounts.Value(1), 1e-9)
	assert.True(t, amounts.IsNull(2))

	counts := table.Column(2).Data().Chunk(0).(*array.Float64)
	assert.InDelta(t, 1, counts.Value(2), 1e-9)
}

func TestWriteFile(t *testing.T) {
	agg, err := Breakdown(sales(), []string{dataset.ColYear, dataset.ColBranch})
	require.NoError(t, err)
	opt := DefaultOptions()
	opt.Compression = "zstd"

	p := filepath.Join(t.TempDir(), "out", "breakdown.parquet")
	require.NoError(t, WriteFile(p, agg, opt))
	data, err := os.ReadFile(p)
	require.NoError(t, err)

	table := readBack(t, data)
	assert.EqualValues(t, 3, table.NumRows())
	years := table.Column(0).Data().Chunk(0).(*array.String)
	assert.Equal(t, "2025", years.Value(0))
}

func TestWriteUnsupportedCompression(t *testing.T) {
	err := Write(&bytes.Buffer{}, engine.Aggregate{Keys: []string{"k"}}, Options{Compression: "rar"})
	assert.ErrorContains(t, err, "unsupported compression")
}
