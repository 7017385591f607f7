// Package export writes grouped sales breakdowns as Parquet files.
package export

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
	"github.com/KaramelBytes/salesdash-cli/internal/engine"
	"github.com/KaramelBytes/salesdash-cli/internal/utils"
)

// Options controls Parquet encoding.
type Options struct {
	Compression string
	BatchSize   int
}

// DefaultOptions uses snappy, the Parquet default.
func DefaultOptions() Options {
	return Options{Compression: "snappy", BatchSize: 1024}
}

// Breakdown sums amount and counts transactions per dims tuple and joins the
// two on dims. Groups keep first-seen order. Without an order_ref column the
// transactions measure is a row count.
func Breakdown(view *dataset.Dataset, dims []string) (engine.Aggregate, error) {
	sums := engine.GroupSum(view, dims, dataset.ColAmount)
	counts, basis := engine.GroupCount(view, dims, dataset.ColOrderRef)
	slog.Debug("breakdown", "dims", dims, "transaction_basis", basis)
	if !counts.Available() {
		return engine.Aggregate{}, fmt.Errorf("breakdown: unknown columns %s", strings.Join(counts.Missing, ", "))
	}
	if !sums.Available() {
		return counts, nil
	}
	merged, err := engine.Merge(sums, counts, dims)
	if err != nil {
		return engine.Aggregate{}, fmt.Errorf("breakdown: %w", err)
	}
	return merged, nil
}

// WriteFile writes agg to path as Parquet, atomically.
func WriteFile(path string, agg engine.Aggregate, opt Options) error {
	var buf bytes.Buffer
	if err := Write(&buf, agg, opt); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// Write encodes agg as one Parquet row group: key columns as nullable utf8,
// measures as nullable float64.
func Write(w io.Writer, agg engine.Aggregate, opt Options) error {
	mem := memory.NewGoAllocator()
	table := toTable(agg, mem)
	defer table.Release()

	var codec compress.Compression
	switch strings.ToLower(opt.Compression) {
	case "gzip":
		codec = compress.Codecs.Gzip
	case "zstd":
		codec = compress.Codecs.Zstd
	case "lz4":
		codec = compress.Codecs.Lz4Raw
	case "none", "uncompressed":
		codec = compress.Codecs.Uncompressed
	case "", "snappy":
		codec = compress.Codecs.Snappy
	default:
		return fmt.Errorf("unsupported compression %q", opt.Compression)
	}
	batch := opt.BatchSize
	if batch <= 0 {
		batch = 1024
	}
	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithBatchSize(int64(batch)),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(mem))

	writer, err := pqarrow.NewFileWriter(table.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}
	rows := int64(agg.Len())
	if rows == 0 {
		rows = 1
	}
	if err := writer.WriteTable(table, rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing file writer: %w", err)
	}
	return nil
}

func toTable(agg engine.Aggregate, mem memory.Allocator) arrow.Table {
	fields := make([]arrow.Field, 0, len(agg.Keys)+len(agg.Measures))
	arrays := make([]arrow.Array, 0, cap(fields))

	for k, name := range agg.Keys {
		b := array.NewStringBuilder(mem)
		for _, r := range agg.Rows {
			if v := r.Keys[k]; v.IsNull() {
				b.AppendNull()
			} else {
				b.Append(v.Text())
			}
		}
		fields = append(fields, arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true})
		arrays = append(arrays, b.NewArray())
		b.Release()
	}
	for m, name := range agg.Measures {
		b := array.NewFloat64Builder(mem)
		for _, r := range agg.Rows {
			if v := r.Values[m]; v.Valid {
				b.Append(v.Value)
			} else {
				b.AppendNull()
			}
		}
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true})
		arrays = append(arrays, b.NewArray())
		b.Release()
	}

	schema := arrow.NewSchema(fields, nil)
	columns := make([]arrow.Column, len(fields))
	for i, arr := range arrays {
		chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
		columns[i] = *arrow.NewColumn(fields[i], chunked)
		chunked.Release()
		arr.Release()
	}
	return array.NewTable(schema, columns, int64(agg.Len()))
}
