package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kevinwong150/journalex-sub001/internal/models"
)

// keyScale is the fixed number of fractional digits every quantity and
// price carries inside a StatementKey.
const keyScale = 8

// StatementKey identifies one execution row during bulk ingestion. Two
// rows describing the same fill produce the same key no matter how many
// trailing digits the export rendered, so re-imported statements never
// duplicate.
type StatementKey struct {
	TimestampMicros int64
	Symbol          string
	Side            string
	Quantity        string
	Price           string
}

// NormalizeKey canonicalizes raw statement fields into a comparable key.
// ok=false when the timestamp is absent or unparseable; no key is
// produced for such rows.
func NormalizeKey(datetime, symbol, quantity, price string) (StatementKey, bool) {
	ts, ok := models.ParseTime(datetime)
	if !ok {
		return StatementKey{}, false
	}

	qty, qtyErr := ParseDecimal(quantity)
	// Side defaults to buy when the quantity does not parse. Documented
	// policy, kept as-is; see DESIGN.md.
	side := models.SideBuy
	if qtyErr == nil && qty.IsNegative() {
		side = models.SideSell
	}

	px, pxErr := ParseDecimal(price)
	if pxErr != nil {
		px = decimal.Zero
	}

	return StatementKey{
		TimestampMicros: ts.UnixMicro(),
		Symbol:          strings.TrimSpace(symbol),
		Side:            side,
		Quantity:        fixedScale(qty),
		Price:           fixedScale(px),
	}, true
}

// KeyFromExecution derives the dedup key of an already-stored execution.
func KeyFromExecution(e models.Execution) StatementKey {
	px := decimal.Zero
	if e.Price != nil {
		px = *e.Price
	}
	return StatementKey{
		TimestampMicros: e.Timestamp.UTC().UnixMicro(),
		Symbol:          e.Symbol,
		Side:            e.Side,
		Quantity:        fixedScale(e.Quantity),
		Price:           fixedScale(px),
	}
}

// ParseDecimal parses a decimal string tolerant of thousands separators.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	return decimal.NewFromString(s)
}

// fixedScale rounds half away from zero to keyScale digits and renders
// exactly keyScale fractional digits, zero-padded.
func fixedScale(d decimal.Decimal) string {
	return d.Round(keyScale).StringFixed(keyScale)
}
