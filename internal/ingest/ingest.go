// Package ingest turns CSV, TSV and XLSX sales sheets into datasets. Header
// names are mapped to canonical columns through an alias table; cells are
// typed per column (dates, amounts, categorical labels).
package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
)

// Options controls how a sheet is located and how its cells are read.
type Options struct {
	// SheetName selects a workbook sheet by name (case-insensitive).
	SheetName string
	// SheetIndex selects a sheet by 1-based position when SheetName is empty
	// or absent from the workbook and Strict is false. 0 means the first.
	SheetIndex int
	// Strict makes a missing SheetName an error instead of falling back.
	Strict bool
	// Delimiter for CSV. If 0, sniffed from the extension and first line.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// DayFirst reads slash dates as day/month/year instead of month/day/year.
	DayFirst bool
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// Aliases maps canonical columns to accepted header names, merged over
	// DefaultAliases.
	Aliases map[string][]string
}

// DefaultOptions mirrors the sheet layout of the sales export.
func DefaultOptions() Options {
	return Options{SheetName: "sales", Aliases: DefaultAliases()}
}

// Table is a sheet as read from disk, before typing.
type Table struct {
	Sheet   string
	Header  []string
	Records [][]string
	// SerialDates is set when numeric date cells are spreadsheet serials.
	SerialDates bool
	Date1904    bool
	Truncated   int
	Warnings    []string
}

// Reader reads one file format into a Table.
type Reader interface {
	CanRead(path string) bool
	Read(path string, opt Options) (*Table, error)
}

var registry []Reader

// Register adds a Reader. Later registrations are consulted after earlier ones.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// Result is a loaded dataset plus what was learned while loading it.
type Result struct {
	Dataset *dataset.Dataset
	Name    string
	Sheet   string
	// Mapping records which source header fed each canonical column.
	Mapping  map[string]string
	Warnings []string
}

// Load reads path with the first registered Reader that accepts it and
// builds a Dataset over the canonical columns found in its header.
func Load(path string, opt Options) (*Result, error) {
	var rd Reader
	for _, r := range registry {
		if r.CanRead(path) {
			rd = r
			break
		}
	}
	if rd == nil {
		return nil, &Error{Op: "load", Path: path, Message: fmt.Sprintf("%s (%s)", ErrUnsupportedFormat, filepath.Ext(path)), Cause: ErrUnsupportedFormat}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &Error{Op: "load", Path: path, Message: err.Error(), Cause: err}
	}
	start := time.Now()
	tbl, err := rd.Read(path, opt)
	if err != nil {
		return nil, err
	}
	res, err := buildResult(path, tbl, opt)
	if err != nil {
		return nil, err
	}
	slog.Debug("dataset loaded",
		"file", res.Name,
		"sheet", res.Sheet,
		"rows", res.Dataset.Len(),
		"columns", strings.Join(res.Dataset.Columns(), ","),
		"elapsed", time.Since(start))
	return res, nil
}

func buildResult(path string, tbl *Table, opt Options) (*Result, error) {
	aliases := mergeAliases(DefaultAliases(), opt.Aliases)
	bound, dupes := resolveSchema(tbl.Header, aliases)

	res := &Result{
		Name:     filepath.Base(path),
		Sheet:    tbl.Sheet,
		Mapping:  map[string]string{},
		Warnings: append([]string(nil), tbl.Warnings...),
	}
	hasDate := false
	cols := make([]string, 0, len(bound))
	for _, b := range bound {
		cols = append(cols, b.Column)
		res.Mapping[b.Column] = b.Header
		hasDate = hasDate || b.Column == dataset.ColDate
	}
	if !hasDate {
		return nil, &Error{
			Op:      "load",
			Path:    path,
			Column:  dataset.ColDate,
			Message: fmt.Sprintf("%s; headers: %s", ErrMissingDateColumn, strings.Join(trimAll(tbl.Header), ", ")),
			Cause:   ErrMissingDateColumn,
		}
	}
	for _, d := range dupes {
		res.Warnings = append(res.Warnings, fmt.Sprintf("ignored duplicate column %q", d))
	}

	b := dataset.NewBuilder(cols)
	badDates, badAmounts := 0, 0
	for _, rec := range tbl.Records {
		cells := make(map[string]dataset.Value, len(bound))
		for _, bd := range bound {
			raw := ""
			if bd.Index < len(rec) {
				raw = strings.TrimSpace(rec[bd.Index])
			}
			v := typedCell(bd.Column, raw, tbl, opt)
			if raw != "" && v.IsNull() {
				switch bd.Column {
				case dataset.ColDate:
					badDates++
				case dataset.ColAmount:
					badAmounts++
				}
			}
			cells[bd.Column] = v
		}
		b.Add(cells)
	}
	res.Dataset = b.Build()

	if badDates > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d rows have unparseable dates and carry no year", badDates))
	}
	if badAmounts > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d rows have non-numeric amounts", badAmounts))
	}
	if tbl.Truncated > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", len(tbl.Records), len(tbl.Records)+tbl.Truncated))
	}
	return res, nil
}

func typedCell(column, raw string, tbl *Table, opt Options) dataset.Value {
	if raw == "" {
		return dataset.Null()
	}
	switch column {
	case dataset.ColDate:
		if t, ok := parseTimeMaybe(raw, opt.DayFirst); ok {
			return dataset.Date(t)
		}
		if tbl.SerialDates {
			if t, ok := serialDate(raw, tbl.Date1904); ok {
				return dataset.Date(t)
			}
		}
		return dataset.Null()
	case dataset.ColAmount:
		if f, ok := parseNumeric(raw, opt); ok {
			return dataset.Number(f)
		}
		return dataset.Null()
	case dataset.ColOrderRef:
		if s := strings.TrimSpace(raw); s != "" {
			return dataset.Text(s)
		}
		return dataset.Null()
	default:
		return categorical(raw)
	}
}

func mergeAliases(base, extra map[string][]string) map[string][]string {
	out := make(map[string][]string, len(base))
	for k, v := range base {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range extra {
		out[k] = append(append([]string(nil), v...), out[k]...)
	}
	return out
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
