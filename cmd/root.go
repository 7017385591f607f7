package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/salesdash-cli/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "salesdash",
	Short: "SalesDash CLI: filter, aggregate and rank sales sheets",
	Long: `SalesDash reads CSV/TSV/XLSX sales exports and produces a dashboard report:
key metrics, yearly performance, a daily sales trend and ranked categories,
products and branches, narrowed by year, branch and category.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(setupLogging, loadConfig)
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "✗ Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.salesdash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func setupLogging() {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
	slog.Debug("config loaded", "sheet_name", cfg.SheetName, "output_format", cfg.OutputFormat)
}

// settings returns the loaded config, or defaults when loading failed.
func settings() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	return &cfgpkg.Global{SheetName: "sales", TopProducts: 10, TrendDays: 9, OutputFormat: "markdown", Locale: "en"}
}
