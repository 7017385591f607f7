package dashboard

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/salesdash-cli/internal/engine"
	"github.com/KaramelBytes/salesdash-cli/internal/utils"
)

// Render encodes the report as markdown, json or yaml.
func Render(r *Report, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "markdown", "md":
		return []byte(r.Markdown()), nil
	case "json":
		return utils.PrettyJSON(r)
	case "yaml", "yml":
		b, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	default:
		return nil, CheckFormat(format)
	}
}

// CheckFormat reports whether Render understands format.
func CheckFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "markdown", "md", "json", "yaml", "yml":
		return nil
	}
	return fmt.Errorf("unsupported format %q (use markdown|json|yaml)", format)
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	f := newFormatter(r.locale, r.Currency)
	var b strings.Builder

	b.WriteString("[SALES DASHBOARD]\n")
	if r.Source != "" {
		if r.Sheet != "" {
			b.WriteString(fmt.Sprintf("File: %s (sheet: %s)\n", r.Source, r.Sheet))
		} else {
			b.WriteString(fmt.Sprintf("File: %s\n", r.Source))
		}
	}
	b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	var sel []string
	for _, fl := range r.Filters {
		sel = append(sel, fmt.Sprintf("%s=%s", fl.Column, fl.Selected))
	}
	b.WriteString(fmt.Sprintf("Filters: %s\n", strings.Join(sel, ", ")))
	b.WriteString(fmt.Sprintf("Filtered Data: %s rows (of %s)\n\n", f.integer(r.FilteredRows), f.integer(r.TotalRows)))

	b.WriteString("[KEY METRICS]\n")
	total, avg := NotAvailable, NotAvailable
	if r.Summary.HasAmount {
		total = f.money(r.Summary.TotalAmount, NoData)
		avg = f.money(r.Summary.AverageAmount, NoData)
	}
	b.WriteString(fmt.Sprintf("- Total Sales: %s\n", total))
	b.WriteString(fmt.Sprintf("- Average Sales: %s\n", avg))
	basis := "distinct order refs"
	if r.Summary.TransactionBasis == engine.BasisRows {
		basis = "rows"
	}
	b.WriteString(fmt.Sprintf("- Total Transactions: %s (%s)\n", f.integer(r.Summary.TransactionCount), basis))

	if len(r.Years.Missing) == 0 {
		b.WriteString("\n[YEARLY PERFORMANCE]\n")
		if len(r.Years.Cards) == 0 {
			b.WriteString("- No data\n")
		}
		for _, c := range r.Years.Cards {
			b.WriteString(fmt.Sprintf("- %s: sales %s; transactions %s\n",
				c.Year, f.money(c.Sales, NoData), f.count(c.Transactions, NoData)))
		}
	}

	if r.Trend.Available() && r.Trend.From != "" {
		b.WriteString(fmt.Sprintf("\n[SALES TREND %s to %s]\n", r.Trend.From, r.Trend.To))
		if r.Trend.Empty {
			b.WriteString("- No data\n")
		} else {
			b.WriteString("| Date | Sales |\n| --- | --- |\n")
			for _, p := range r.Trend.Points {
				b.WriteString(fmt.Sprintf("| %s | %s |\n", p.Date, f.money(p.Sales, NoData)))
			}
		}
	}

	for _, sec := range []Section{r.Categories, r.Products, r.Branches} {
		if !sec.Available() {
			continue
		}
		b.WriteString(fmt.Sprintf("\n[%s]\n", strings.ToUpper(sec.Title)))
		if sec.Empty {
			b.WriteString("- No data\n")
			continue
		}
		b.WriteString("| Rank | Name | Sales | Share |\n| --- | --- | --- | --- |\n")
		for i, it := range sec.Items {
			b.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n", i+1, safeVal(it.Label), f.money(it.Sales, NoData), f.share(it.Share)))
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
