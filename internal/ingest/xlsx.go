package ingest

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

// Read loads the selected sheet with raw cell values, so dates arrive as
// serial numbers and amounts without display formatting.
func (xlsxReader) Read(path string, opt Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &Error{Op: "open xlsx", Path: path, Message: err.Error(), Cause: err}
	}
	defer f.Close()

	tbl := &Table{SerialDates: true}
	sheet, note, err := pickSheet(f.GetSheetList(), path, opt)
	if err != nil {
		return nil, err
	}
	tbl.Sheet = sheet
	if note != "" {
		tbl.Warnings = append(tbl.Warnings, note)
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		tbl.Date1904 = *props.Date1904
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, &Error{Op: "read xlsx", Path: path, Message: err.Error(), Cause: err}
	}
	defer rows.Close()

	first := true
	for rows.Next() {
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, &Error{Op: "read xlsx", Path: path, Message: err.Error(), Cause: err}
		}
		if first {
			if blankRecord(cols) {
				continue
			}
			tbl.Header = cols
			first = false
			continue
		}
		if blankRecord(cols) {
			continue
		}
		if opt.MaxRows > 0 && len(tbl.Records) >= opt.MaxRows {
			tbl.Truncated++
			continue
		}
		tbl.Records = append(tbl.Records, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, &Error{Op: "read xlsx", Path: path, Message: err.Error(), Cause: err}
	}
	return tbl, nil
}

// pickSheet resolves the sheet by name, then by 1-based index, then the
// first sheet. A requested name that is missing is an error in strict mode
// and a note otherwise.
func pickSheet(sheets []string, path string, opt Options) (string, string, error) {
	if len(sheets) == 0 {
		return "", "", &Error{Op: "open xlsx", Path: path, Message: "workbook has no sheets", Cause: ErrSheetNotFound}
	}
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				return s, "", nil
			}
		}
		if opt.Strict {
			return "", "", &Error{
				Op:   "open xlsx",
				Path: path,
				Message: fmt.Sprintf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
					opt.SheetName, filepath.Base(path), strings.Join(sheets, ", ")),
				Cause: ErrSheetNotFound,
			}
		}
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", "", &Error{
			Op:      "open xlsx",
			Path:    path,
			Message: fmt.Sprintf("sheet index %d out of range; available sheets: %s", idx, strings.Join(sheets, ", ")),
			Cause:   ErrSheetNotFound,
		}
	}
	picked := sheets[idx-1]
	if opt.SheetName != "" {
		return picked, fmt.Sprintf("sheet %q not found; using %q", opt.SheetName, picked), nil
	}
	return picked, "", nil
}

func serialDate(raw string, date1904 bool) (time.Time, bool) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, date1904)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
