package dashboard

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/salesdash-cli/internal/engine"
)

// Placeholders for measures that cannot be shown as numbers.
const (
	NotAvailable = "N/A"
	NoData       = "No data"
)

// formatter prints numbers with the grouping rules of a locale.
type formatter struct {
	p        *message.Printer
	currency string
}

func newFormatter(locale, currency string) formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return formatter{p: message.NewPrinter(tag), currency: currency}
}

// money renders an amount with two decimals, or missing when absent.
func (f formatter) money(n engine.Number, missing string) string {
	if !n.Valid {
		return missing
	}
	s := f.p.Sprintf("%.2f", n.Value)
	if f.currency != "" {
		return f.currency + " " + s
	}
	return s
}

func (f formatter) count(n engine.Number, missing string) string {
	if !n.Valid {
		return missing
	}
	return f.p.Sprintf("%d", int64(n.Value))
}

func (f formatter) integer(n int) string { return f.p.Sprintf("%d", n) }

func (f formatter) share(n engine.Number) string {
	if !n.Valid {
		return "-"
	}
	return f.p.Sprintf("%.1f%%", n.Value*100)
}
