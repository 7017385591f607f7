package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/salesdash-cli/internal/dashboard"
	"github.com/KaramelBytes/salesdash-cli/internal/engine"
	"github.com/KaramelBytes/salesdash-cli/internal/ingest"
	"github.com/KaramelBytes/salesdash-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	optLoad loadFlags
	optJSON bool
)

var optionsCmd = &cobra.Command{
	Use:   "options <file>",
	Short: "List the selectable year, branch and category values of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt, err := optLoad.options(cmd, settings())
		if err != nil {
			return err
		}
		res, err := ingest.Load(path, opt)
		if err != nil {
			readFailed(cmd, path, err)
			return errReported
		}
		out := cmd.OutOrStdout()
		if optJSON {
			choices := map[string][]string{}
			for _, col := range dashboard.FilterColumns {
				choices[col] = engine.Choices(res.Dataset, col)
			}
			b, err := utils.PrettyJSON(choices)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		if res.Sheet != "" {
			fmt.Fprintf(out, "File: %s (sheet: %s)\n", res.Name, res.Sheet)
		} else {
			fmt.Fprintf(out, "File: %s\n", res.Name)
		}
		for _, col := range dashboard.FilterColumns {
			fmt.Fprintf(out, "%s: %s\n", col, strings.Join(engine.Choices(res.Dataset, col), ", "))
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
	optLoad.bind(optionsCmd)
	optionsCmd.Flags().BoolVar(&optJSON, "json", false, "print choices as JSON")
}
