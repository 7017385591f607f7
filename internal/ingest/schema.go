package ingest

import (
	"strings"

	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
)

// DefaultAliases maps each canonical column to the header names accepted for
// it. Matching ignores case and surrounding whitespace. Localized headers are
// added through configuration.
func DefaultAliases() map[string][]string {
	return map[string][]string{
		dataset.ColDate:     {"date", "order date", "invoice date"},
		dataset.ColAmount:   {"amount", "sales", "total", "revenue"},
		dataset.ColOrderRef: {"order_ref", "order ref", "order reference", "order id"},
		dataset.ColBranch:   {"branch", "store", "location"},
		dataset.ColCategory: {"category", "product category"},
		dataset.ColProduct:  {"product", "order lines/product", "item"},
	}
}

// canonicalOrder fixes the column order of loaded datasets.
var canonicalOrder = []string{
	dataset.ColDate, dataset.ColAmount, dataset.ColOrderRef,
	dataset.ColBranch, dataset.ColCategory, dataset.ColProduct,
}

// binding ties a canonical column to its position in the source header.
type binding struct {
	Column string
	Index  int
	Header string
}

// resolveSchema matches header cells against aliases. The first header that
// matches a canonical column wins; later duplicates are reported.
func resolveSchema(header []string, aliases map[string][]string) (bound []binding, dupes []string) {
	lookup := make(map[string]string)
	for _, col := range canonicalOrder {
		lookup[normalizeHeader(col)] = col
		for _, a := range aliases[col] {
			if n := normalizeHeader(a); n != "" {
				if _, taken := lookup[n]; !taken {
					lookup[n] = col
				}
			}
		}
	}
	seen := make(map[string]int)
	for i, h := range header {
		col, ok := lookup[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, dup := seen[col]; dup {
			dupes = append(dupes, strings.TrimSpace(h))
			continue
		}
		seen[col] = len(bound)
		bound = append(bound, binding{Column: col, Index: i, Header: strings.TrimSpace(h)})
	}
	out := make([]binding, 0, len(bound))
	for _, col := range canonicalOrder {
		if k, ok := seen[col]; ok {
			out = append(out, bound[k])
		}
	}
	return out, dupes
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
