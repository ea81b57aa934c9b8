package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Execution is one fill row from a brokerage activity statement.
// Immutable once stored; quantity is signed (positive = buy) and never
// zero for a persisted row.
type Execution struct {
	ID         int64
	Symbol     string
	Side       string
	Timestamp  time.Time // UTC, microsecond precision
	Quantity   decimal.Decimal
	Price      *decimal.Decimal
	Fees       decimal.Decimal
	RealizedPL *decimal.Decimal
}

func (e Execution) IsBuy() bool { return e.Quantity.IsPositive() }

// SideOf derives the trade side from a signed quantity.
func SideOf(quantity decimal.Decimal) string {
	if quantity.IsNegative() {
		return SideSell
	}
	return SideBuy
}
