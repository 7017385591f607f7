package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KaramelBytes/salesdash-cli/internal/config"
	"github.com/KaramelBytes/salesdash-cli/internal/ingest"
	"github.com/spf13/cobra"
)

// loadFlags are the ingestion flags shared by every command that reads a file.
type loadFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	sheetName  string
	sheetIndex int
	maxRows    int
	dayFirst   bool
}

func (lf *loadFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&lf.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	cmd.Flags().StringVar(&lf.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	cmd.Flags().StringVar(&lf.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	cmd.Flags().StringVar(&lf.sheetName, "sheet-name", "", "XLSX: sheet name to read; fails if absent (default from config: sales, falling back to the first sheet)")
	cmd.Flags().IntVar(&lf.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index used when the sheet name is not found")
	cmd.Flags().IntVar(&lf.maxRows, "max-rows", 0, "maximum rows to process (0 = unlimited)")
	cmd.Flags().BoolVar(&lf.dayFirst, "day-first", false, "read slash dates as DD/MM/YYYY (default MM/DD/YYYY)")
}

// options merges config and flags into ingest options; flags win.
func (lf *loadFlags) options(cmd *cobra.Command, c *config.Global) (ingest.Options, error) {
	opt := ingest.DefaultOptions()
	if c.SheetName != "" {
		opt.SheetName = c.SheetName
	}
	opt.SheetIndex = c.SheetIndex
	opt.Delimiter = config.Rune(c.Delimiter)
	opt.DecimalSeparator = config.Rune(c.DecimalSeparator)
	opt.ThousandsSeparator = config.Rune(c.ThousandsSeparator)
	opt.MaxRows = c.MaxRows
	opt.DayFirst = c.DayFirst
	opt.Aliases = c.Columns

	f := cmd.Flags()
	if f.Changed("sheet-name") {
		opt.SheetName = lf.sheetName
		opt.Strict = true
	}
	if f.Changed("sheet-index") {
		if lf.sheetIndex < 1 {
			return opt, fmt.Errorf("invalid --sheet-index: %d (must be >= 1)", lf.sheetIndex)
		}
		opt.SheetIndex = lf.sheetIndex
	}
	if f.Changed("day-first") {
		opt.DayFirst = lf.dayFirst
	}
	if f.Changed("max-rows") {
		if lf.maxRows < 0 {
			return opt, fmt.Errorf("invalid --max-rows: %d", lf.maxRows)
		}
		opt.MaxRows = lf.maxRows
	}
	if lf.delimiter != "" {
		switch lf.delimiter {
		case ",":
			opt.Delimiter = ','
		case "\t", `\t`, "tab":
			opt.Delimiter = '\t'
		case ";":
			opt.Delimiter = ';'
		default:
			return opt, fmt.Errorf("unsupported --delimiter: %s", lf.delimiter)
		}
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(lf.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", lf.decimal)
	}
	switch strings.ToLower(lf.thousands) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", lf.thousands)
	}
	return opt, nil
}

// errReported marks failures already shown to the user.
var errReported = errors.New("reported")

// readFailed prints the single message shown for anything that goes wrong
// while loading or analyzing a file.
func readFailed(cmd *cobra.Command, path string, err error) {
	slog.Debug("read failed", "file", path, "err", err)
	fmt.Fprintf(cmd.ErrOrStderr(), "✗ Error reading file: %v\n", err)
}
