package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type csvReader struct{}

func (csvReader) CanRead(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvReader) Read(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Op: "open csv", Path: path, Message: err.Error(), Cause: err}
	}
	defer f.Close()

	br := bufio.NewReader(f)
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path, br)
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim

	tbl := &Table{}
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return tbl, nil
		}
		return nil, &Error{Op: "read csv header", Path: path, Message: err.Error(), Cause: err}
	}
	tbl.Header = append([]string(nil), header...)

	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &Error{Op: "read csv", Path: path, Message: fmt.Sprintf("row %d: %v", len(tbl.Records)+tbl.Truncated+2, err), Cause: err}
		}
		if blankRecord(rec) {
			continue
		}
		if opt.MaxRows > 0 && len(tbl.Records) >= opt.MaxRows {
			tbl.Truncated++
			continue
		}
		tbl.Records = append(tbl.Records, rec)
	}
	return tbl, nil
}

// sniffDelimiter prefers the extension, then the most frequent of ',', ';'
// and tab on the first line.
func sniffDelimiter(path string, br *bufio.Reader) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	peek, _ := br.Peek(4096)
	line := string(peek)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestN := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
