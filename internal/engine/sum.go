package engine

import "github.com/shopspring/decimal"

// moneySum accumulates amounts in decimal so long sums of cents do not drift.
type moneySum struct {
	total decimal.Decimal
	n     int
}

func (s *moneySum) add(f float64) {
	s.total = s.total.Add(decimal.NewFromFloat(f))
	s.n++
}

// sum is absent when nothing was added.
func (s moneySum) sum() Number {
	if s.n == 0 {
		return None()
	}
	return Some(s.total.InexactFloat64())
}

func (s moneySum) mean() Number {
	if s.n == 0 {
		return None()
	}
	return Some(s.total.Div(decimal.NewFromInt(int64(s.n))).InexactFloat64())
}
