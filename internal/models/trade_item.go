package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TradeItem is a closing-trade record as it arrives from outside the
// reconstruction core: fields are raw strings and may be malformed.
// Extraction helpers report ok=false instead of failing hard.
type TradeItem struct {
	Datetime   string
	Ticker     string
	Quantity   string
	RealizedPL string
}

func (t TradeItem) Symbol() string {
	return strings.TrimSpace(t.Ticker)
}

// Qty parses the signed quantity, tolerating thousands separators.
func (t TradeItem) Qty() (decimal.Decimal, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(t.Quantity), ",", "")
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
