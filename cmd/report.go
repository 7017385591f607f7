package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/salesdash-cli/internal/dashboard"
	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
	"github.com/KaramelBytes/salesdash-cli/internal/engine"
	"github.com/KaramelBytes/salesdash-cli/internal/ingest"
	"github.com/KaramelBytes/salesdash-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	repLoad     loadFlags
	repYear     string
	repBranch   string
	repCategory string
	repFrom     string
	repTo       string
	repTop      int
	repDays     int
	repFormat   string
	repOutput   string
	repCurrency string
	repQuiet    bool
)

var reportCmd = &cobra.Command{
	Use:   "report <files...>",
	Short: "Build a sales dashboard report for one or more CSV/TSV/XLSX files",
	Long: `Build a sales dashboard report: key metrics, yearly performance, a daily
sales trend, top categories, top products and sales by branch.

Filters (--year, --branch, --category) compare by canonical text; "All" or an
empty value leaves a dimension unconstrained. Multiple files and globs are
processed in order; with several inputs and --output, one report per input is
written next to the output path as <output-stem>.<input-stem><ext>.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := utils.ExpandInputs(args)
		if err != nil {
			return err
		}
		c := settings()
		opt, err := repLoad.options(cmd, c)
		if err != nil {
			return err
		}
		spec := engine.FilterSpec{}.
			With(dataset.ColYear, repYear).
			With(dataset.ColBranch, repBranch).
			With(dataset.ColCategory, repCategory)

		dopt := dashboard.DefaultOptions()
		dopt.TopProducts = c.TopProducts
		dopt.TrendDays = c.TrendDays
		dopt.CurrencyLabel = c.CurrencyLabel
		if c.Locale != "" {
			dopt.Locale = c.Locale
		}
		f := cmd.Flags()
		if f.Changed("top") {
			if repTop < 1 {
				return fmt.Errorf("invalid --top: %d (must be >= 1)", repTop)
			}
			dopt.TopProducts = repTop
		}
		if f.Changed("days") {
			if repDays < 1 {
				return fmt.Errorf("invalid --days: %d (must be >= 1)", repDays)
			}
			dopt.TrendDays = repDays
		}
		if f.Changed("currency") {
			dopt.CurrencyLabel = repCurrency
		}
		if dopt.From, err = parseDay("from", repFrom); err != nil {
			return err
		}
		if dopt.To, err = parseDay("to", repTo); err != nil {
			return err
		}
		if !dopt.From.IsZero() && !dopt.To.IsZero() && dopt.From.After(dopt.To) {
			return fmt.Errorf("--from %s is after --to %s", repFrom, repTo)
		}
		format := c.OutputFormat
		if f.Changed("format") {
			format = repFormat
		}
		if err := dashboard.CheckFormat(format); err != nil {
			return err
		}

		failed := 0
		for i, path := range files {
			if !repQuiet && len(files) > 1 {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Processing %s...\n", i+1, len(files), path)
			}
			out, err := buildReport(path, opt, spec, dopt, format)
			if err != nil {
				readFailed(cmd, path, err)
				failed++
				continue
			}
			if repOutput == "" {
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
				continue
			}
			dest := outputPath(repOutput, path, len(files) > 1)
			if err := utils.SafeWriteFile(dest, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if !repQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote report to %s\n", dest)
			}
		}
		if failed > 0 {
			if len(files) > 1 && !repQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d files failed\n", failed, len(files))
			}
			return errReported
		}
		return nil
	},
}

func buildReport(path string, opt ingest.Options, spec engine.FilterSpec, dopt dashboard.Options, format string) ([]byte, error) {
	res, err := ingest.Load(path, opt)
	if err != nil {
		return nil, err
	}
	dopt.Source = res.Name
	dopt.Sheet = res.Sheet
	dopt.Warnings = res.Warnings
	rep, err := dashboard.Build(res.Dataset, spec, dopt)
	if err != nil {
		return nil, err
	}
	slog.Debug("report built", "file", res.Name, "run_id", rep.RunID, "rows", rep.FilteredRows)
	return dashboard.Render(rep, format)
}

// outputPath derives the destination for one input. A single input writes to
// out itself.
func outputPath(out, input string, many bool) string {
	if !many {
		return out
	}
	ext := filepath.Ext(out)
	stem := strings.TrimSuffix(out, ext)
	base := filepath.Base(input)
	return fmt.Sprintf("%s.%s%s", stem, strings.TrimSuffix(base, filepath.Ext(base)), ext)
}

func parseDay(flag, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s: %q (use YYYY-MM-DD)", flag, s)
	}
	return t, nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	repLoad.bind(reportCmd)
	reportCmd.Flags().StringVar(&repYear, "year", "", "filter by year (default All)")
	reportCmd.Flags().StringVar(&repBranch, "branch", "", "filter by branch (default All)")
	reportCmd.Flags().StringVar(&repCategory, "category", "", "filter by category (default All)")
	reportCmd.Flags().StringVar(&repFrom, "from", "", "trend window start, YYYY-MM-DD (default: trailing window)")
	reportCmd.Flags().StringVar(&repTo, "to", "", "trend window end, YYYY-MM-DD (default: latest date)")
	reportCmd.Flags().IntVar(&repTop, "top", 10, "number of top products to list (overrides config)")
	reportCmd.Flags().IntVar(&repDays, "days", 9, "trailing trend window in days (overrides config)")
	reportCmd.Flags().StringVar(&repCurrency, "currency", "", "currency label prefixed to amounts (overrides config)")
	reportCmd.Flags().StringVarP(&repFormat, "format", "f", "markdown", "output format: markdown|json|yaml (overrides config)")
	reportCmd.Flags().StringVarP(&repOutput, "output", "o", "", "optional path to write the report")
	reportCmd.Flags().BoolVar(&repQuiet, "quiet", false, "suppress progress and non-essential output")
}
