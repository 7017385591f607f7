package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/salesdash-cli/internal/dataset"
)

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05",
	"02-Jan-2006", "2 Jan 2006",
}

// Slash dates are month-first unless the caller asks for day-first. The
// unpadded layouts also accept zero-padded input.
var (
	monthFirstLayouts = []string{"1/2/2006", "1/2/2006 15:04", "1/2/2006 15:04:05"}
	dayFirstLayouts   = []string{"2/1/2006", "2/1/2006 15:04", "2/1/2006 15:04:05"}
)

func parseTimeMaybe(s string, dayFirst bool) (time.Time, bool) {
	s = strings.TrimSpace(s)
	slash := monthFirstLayouts
	if dayFirst {
		slash = dayFirstLayouts
	}
	for _, layouts := range [][]string{timeLayouts, slash} {
		for _, l := range layouts {
			if t, err := time.Parse(l, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// parseNumeric accepts locale-formatted numbers. With no configured decimal
// separator the last of ',' and '.' wins; currency symbols and percent signs
// are stripped.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimFunc(raw, func(r rune) bool {
		return r == '$' || r == '€' || r == '£' || r == ' '
	})
	if raw == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		neg = true
		raw = strings.TrimSuffix(strings.TrimPrefix(raw, "("), ")")
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0 && strings.Count(raw, ",") == 1 && len(raw)-cpos-1 != 3:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// categorical stores a label as a number only when the number prints back as
// the exact input, so 101 stays 101 while 007, 1e3 and 20-digit codes keep
// their text.
func categorical(s string) dataset.Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return dataset.Null()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) && strconv.FormatFloat(f, 'f', -1, 64) == s {
		return dataset.Number(f)
	}
	return dataset.Text(s)
}
