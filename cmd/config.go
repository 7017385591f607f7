package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/salesdash-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set SalesDash configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sheet_name: %s\n", cfg.SheetName)
		if cfg.SheetIndex > 0 {
			fmt.Fprintf(out, "sheet_index: %d\n", cfg.SheetIndex)
		}
		if cfg.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", cfg.Delimiter)
		}
		if cfg.DecimalSeparator != "" {
			fmt.Fprintf(out, "decimal_separator: %q\n", cfg.DecimalSeparator)
		}
		if cfg.ThousandsSeparator != "" {
			fmt.Fprintf(out, "thousands_separator: %q\n", cfg.ThousandsSeparator)
		}
		fmt.Fprintf(out, "max_rows: %d\n", cfg.MaxRows)
		fmt.Fprintf(out, "day_first: %t\n", cfg.DayFirst)
		fmt.Fprintf(out, "top_products: %d\n", cfg.TopProducts)
		fmt.Fprintf(out, "trend_days: %d\n", cfg.TrendDays)
		if cfg.CurrencyLabel != "" {
			fmt.Fprintf(out, "currency_label: %s\n", cfg.CurrencyLabel)
		}
		fmt.Fprintf(out, "output_format: %s\n", cfg.OutputFormat)
		fmt.Fprintf(out, "locale: %s\n", cfg.Locale)
		if len(cfg.Columns) > 0 {
			names := make([]string, 0, len(cfg.Columns))
			for k := range cfg.Columns {
				names = append(names, k)
			}
			sort.Strings(names)
			fmt.Fprintln(out, "columns:")
			for _, k := range names {
				fmt.Fprintf(out, "  %s: %s\n", k, strings.Join(cfg.Columns[k], ", "))
			}
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: "Set a config value and save to disk.\n\nKeys: " + strings.Join(cfgpkg.Keys, ", ") +
		"\nColumn aliases: columns.<date|amount|order_ref|branch|category|product> with a comma-separated header list.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		next := *cfg
		switch key {
		case "sheet_name":
			next.SheetName = val
		case "sheet_index":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for sheet_index: %v", val)
			}
			next.SheetIndex = i
		case "delimiter":
			next.Delimiter = val
		case "decimal_separator":
			next.DecimalSeparator = val
		case "thousands_separator":
			next.ThousandsSeparator = val
		case "day_first":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for day_first: %v", val)
			}
			next.DayFirst = b
		case "max_rows", "top_products", "trend_days":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			switch key {
			case "max_rows":
				next.MaxRows = i
			case "top_products":
				next.TopProducts = i
			default:
				next.TrendDays = i
			}
		case "currency_label":
			next.CurrencyLabel = val
		case "output_format":
			next.OutputFormat = strings.ToLower(val)
		case "locale":
			next.Locale = val
		default:
			col, ok := strings.CutPrefix(key, "columns.")
			if !ok || col == "" {
				return fmt.Errorf("unknown key: %s", key)
			}
			cols := map[string][]string{}
			for k, v := range cfg.Columns {
				cols[k] = v
			}
			var names []string
			for _, n := range strings.Split(val, ",") {
				if n = strings.TrimSpace(n); n != "" {
					names = append(names, n)
				}
			}
			if len(names) == 0 {
				delete(cols, col)
			} else {
				cols[col] = names
			}
			next.Columns = cols
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		*cfg = next
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
