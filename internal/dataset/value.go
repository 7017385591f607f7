package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the dynamic type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// Value is a single typed cell. The zero Value is null.
type Value struct {
	kind Kind
	num  float64
	str  string
	at   time.Time
}

// Null returns the absent value.
func Null() Value { return Value{} }

// Number wraps a real number. NaN is stored as null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Text wraps a string. Blank strings are stored as null.
func Text(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{kind: KindText, str: s}
}

// Date wraps a timestamp. The zero time is stored as null.
func Date(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindDate, at: t}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric payload when the value is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Time returns the temporal payload when the value is a date.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.at, true
}

// Text returns the canonical textual form used for filtering and grouping:
// integral numbers have no decimals, dates are ISO dates (with clock time
// only when it is not midnight), null is the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.num)
	case KindText:
		return v.str
	case KindDate:
		if h, m, s := v.at.Clock(); h == 0 && m == 0 && s == 0 && v.at.Nanosecond() == 0 {
			return v.at.Format("2006-01-02")
		}
		return v.at.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

func (v Value) String() string {
	if v.kind == KindNull {
		return "<null>"
	}
	return v.Text()
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.str == o.str
	case KindDate:
		return v.at.Equal(o.at)
	default:
		return true
	}
}

// Compare orders values of the same kind naturally. Across kinds the order is
// number < text < date, and null always sorts last.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		if v.kind == KindNull {
			return 1
		}
		if o.kind == KindNull {
			return -1
		}
		if v.kind < o.kind {
			return -1
		}
		return 1
	}
	switch v.kind {
	case KindNumber:
		switch {
		case v.num < o.num:
			return -1
		case v.num > o.num:
			return 1
		}
		return 0
	case KindText:
		return strings.Compare(v.str, o.str)
	case KindDate:
		return v.at.Compare(o.at)
	default:
		return 0
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
