package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Workbook selection
	SheetName  string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex int    `mapstructure:"sheet_index" yaml:"sheet_index"`

	// CSV and numeric locale; empty means auto-detect.
	Delimiter          string `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	MaxRows            int    `mapstructure:"max_rows" yaml:"max_rows"`

	// DayFirst reads slash dates as day/month/year.
	DayFirst bool `mapstructure:"day_first" yaml:"day_first"`

	// Report shape
	TopProducts   int    `mapstructure:"top_products" yaml:"top_products"`
	TrendDays     int    `mapstructure:"trend_days" yaml:"trend_days"`
	CurrencyLabel string `mapstructure:"currency_label" yaml:"currency_label"`
	OutputFormat  string `mapstructure:"output_format" yaml:"output_format"`
	Locale        string `mapstructure:"locale" yaml:"locale"`

	// Columns maps canonical column names (date, amount, order_ref, branch,
	// category, product) to extra accepted header names.
	Columns map[string][]string `mapstructure:"columns" yaml:"columns,omitempty"`
}

// Keys lists the scalar settings accepted by `config set`.
var Keys = []string{
	"sheet_name", "sheet_index", "delimiter", "decimal_separator", "thousands_separator",
	"max_rows", "day_first", "top_products", "trend_days", "currency_label", "output_format", "locale",
}

// Dir returns ~/.salesdash.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".salesdash"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.salesdash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (SALESDASH_*) > config file > defaults. Flags are applied
// on top by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SALESDASH")
	v.AutomaticEnv()

	v.SetDefault("sheet_name", "sales")
	v.SetDefault("sheet_index", 0)
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("max_rows", 0)
	v.SetDefault("day_first", false)
	v.SetDefault("top_products", 10)
	v.SetDefault("trend_days", 9)
	v.SetDefault("currency_label", "")
	v.SetDefault("output_format", "markdown")
	v.SetDefault("locale", "en")
	v.SetDefault("columns", map[string][]string{})

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the report pipeline cannot honor.
func (c *Global) Validate() error {
	for name, v := range map[string]string{
		"delimiter":           c.Delimiter,
		"decimal_separator":   c.DecimalSeparator,
		"thousands_separator": c.ThousandsSeparator,
	} {
		if v != `\t` && len([]rune(v)) > 1 {
			return fmt.Errorf("%s must be a single character, got %q", name, v)
		}
	}
	switch strings.ToLower(c.OutputFormat) {
	case "markdown", "md", "json", "yaml":
	default:
		return fmt.Errorf("output_format must be markdown, json or yaml, got %q", c.OutputFormat)
	}
	if c.TopProducts < 0 || c.TrendDays < 0 || c.MaxRows < 0 || c.SheetIndex < 0 {
		return fmt.Errorf("numeric settings must not be negative")
	}
	return nil
}

// Rune converts a single-character setting to a rune; empty means 0. The
// two-character sequence \t stands for a tab.
func Rune(s string) rune {
	if s == `\t` {
		return '\t'
	}
	r := []rune(s)
	if len(r) == 0 {
		return 0
	}
	return r[0]
}
