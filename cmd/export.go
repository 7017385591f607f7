package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
	"github.com/KaramelBytes/salesdash-cli/internal/engine"
	"github.com/KaramelBytes/salesdash-cli/internal/export"
	"github.com/KaramelBytes/salesdash-cli/internal/ingest"
	"github.com/spf13/cobra"
)

var (
	expLoad        loadFlags
	expBy          []string
	expOut         string
	expCompression string
	expYear        string
	expBranch      string
	expCategory    string
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write sales and transactions grouped by columns as a Parquet file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if expOut == "" {
			return fmt.Errorf("--out is required")
		}
		var dims []string
		for _, d := range expBy {
			if d = strings.TrimSpace(d); d != "" {
				dims = append(dims, d)
			}
		}
		if len(dims) == 0 {
			return fmt.Errorf("--by needs at least one column")
		}
		opt, err := expLoad.options(cmd, settings())
		if err != nil {
			return err
		}
		res, err := ingest.Load(path, opt)
		if err != nil {
			readFailed(cmd, path, err)
			return errReported
		}
		spec := engine.FilterSpec{}.
			With(dataset.ColYear, expYear).
			With(dataset.ColBranch, expBranch).
			With(dataset.ColCategory, expCategory)
		view := engine.Apply(res.Dataset, spec)

		agg, err := export.Breakdown(view, dims)
		if err != nil {
			readFailed(cmd, path, err)
			return errReported
		}
		eopt := export.DefaultOptions()
		if expCompression != "" {
			eopt.Compression = expCompression
		}
		if err := export.WriteFile(expOut, agg, eopt); err != nil {
			return fmt.Errorf("write parquet: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %d groups to %s\n", agg.Len(), expOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	expLoad.bind(exportCmd)
	exportCmd.Flags().StringSliceVar(&expBy, "by", []string{dataset.ColYear}, "comma-separated columns to group by")
	exportCmd.Flags().StringVar(&expOut, "out", "", "destination .parquet file")
	exportCmd.Flags().StringVar(&expCompression, "compression", "", "parquet codec: snappy|gzip|zstd|lz4|none (default snappy)")
	exportCmd.Flags().StringVar(&expYear, "year", "", "filter by year (default All)")
	exportCmd.Flags().StringVar(&expBranch, "branch", "", "filter by branch (default All)")
	exportCmd.Flags().StringVar(&expCategory, "category", "", "filter by category (default All)")
}
