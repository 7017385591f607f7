package engine

import "github.com/KaramelBytes/salesdash-cli/internal/dataset"

// TransactionBasis names the rule used to count transactions.
type TransactionBasis string

const (
	// BasisOrderRef counts distinct non-null order references.
	BasisOrderRef TransactionBasis = "distinct_order_ref"
	// BasisRows counts rows because the dataset has no order reference column.
	BasisRows TransactionBasis = "row_count"
)

// Summary holds the scalar metrics of a view. TotalAmount and AverageAmount
// are absent when the amount column is missing; TotalAmount is also absent
// for an empty view, and AverageAmount whenever no amount value is present.
type Summary struct {
	Rows             int              `json:"rows" yaml:"rows"`
	Empty            bool             `json:"empty" yaml:"empty"`
	HasAmount        bool             `json:"has_amount" yaml:"has_amount"`
	TotalAmount      Number           `json:"total_amount" yaml:"total_amount"`
	AverageAmount    Number           `json:"average_amount" yaml:"average_amount"`
	TransactionCount int              `json:"transaction_count" yaml:"transaction_count"`
	TransactionBasis TransactionBasis `json:"transaction_basis" yaml:"transaction_basis"`
}

// Summarize derives total, mean and transaction count from a view. The three
// metrics are independent: a missing amount column does not affect the count.
func Summarize(view *dataset.Dataset) Summary {
	s := Summary{
		Rows:      view.Len(),
		Empty:     view.Len() == 0,
		HasAmount: view.HasColumn(dataset.ColAmount),
	}

	if s.HasAmount {
		var acc moneySum
		for i := 0; i < view.Len(); i++ {
			if f, ok := view.Value(i, dataset.ColAmount).Float(); ok {
				acc.add(f)
			}
		}
		if !s.Empty {
			s.TotalAmount = Some(acc.sum().Or(0))
		}
		s.AverageAmount = acc.mean()
	}

	if view.HasColumn(dataset.ColOrderRef) {
		s.TransactionBasis = BasisOrderRef
		seen := make(map[string]struct{})
		for i := 0; i < view.Len(); i++ {
			if v := view.Value(i, dataset.ColOrderRef); !v.IsNull() {
				seen[v.Text()] = struct{}{}
			}
		}
		s.TransactionCount = len(seen)
	} else {
		s.TransactionBasis = BasisRows
		s.TransactionCount = view.Len()
	}
	return s
}
