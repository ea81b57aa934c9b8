package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevinwong150/journalex-sub001/internal/models"
	"github.com/kevinwong150/journalex-sub001/pkg/logger"
)

// ExecutionStore is the single query capability the builder needs. The
// production implementation is the statements pg repository; tests hand
// in an in-memory list.
type ExecutionStore interface {
	FindBySymbolAndTimeRange(ctx context.Context, symbol string, startInclusive, endExclusive time.Time) ([]models.Execution, error)
}

type Builder struct {
	store ExecutionStore
}

func NewBuilder(store ExecutionStore) *Builder {
	return &Builder{store: store}
}

// closeTarget is the validated extraction of a closing trade item.
type closeTarget struct {
	symbol   string
	closedAt time.Time
	quantity decimal.Decimal
}

func extractTarget(item models.TradeItem) (closeTarget, bool) {
	symbol := item.Symbol()
	if symbol == "" {
		return closeTarget{}, false
	}
	ts, ok := models.ParseTime(item.Datetime)
	if !ok {
		return closeTarget{}, false
	}
	qty, ok := item.Qty()
	if !ok || qty.IsZero() {
		return closeTarget{}, false
	}
	return closeTarget{symbol: symbol, closedAt: ts, quantity: qty}, true
}

// BuildActionChain reconstructs the ordered, labeled sequence of
// executions that opened, grew, trimmed and finally closed the position
// terminated by item. The result maps 1-based string indices to entries;
// nil means no chain could be reconstructed. Malformed items, a close
// that is not present in the data, and openers that never cover the
// close's quantity all collapse to nil rather than an error.
//
// candidates is an optional prefetched set; when nil the builder queries
// the store for the close's symbol and calendar day itself.
func (b *Builder) BuildActionChain(ctx context.Context, item models.TradeItem, candidates []models.Execution) models.ActionChain {
	target, ok := extractTarget(item)
	if !ok {
		return nil
	}

	dayStart := startOfDay(target.closedAt)
	closeSec := target.closedAt.Truncate(time.Second)
	// Inclusive of the close itself at second granularity, exclusive of
	// anything strictly after.
	windowEnd := closeSec.Add(time.Second)

	if candidates == nil {
		fetched, err := b.store.FindBySymbolAndTimeRange(ctx, target.symbol, dayStart, windowEnd)
		if err != nil {
			logger.Error("chain: fetch candidates for %s: %v", target.symbol, err)
			return nil
		}
		candidates = fetched
	} else {
		candidates = filterWindow(candidates, target.symbol, dayStart, windowEnd)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Timestamp.Before(candidates[j].Timestamp)
	})

	// The close must be verifiably present in the data. Sub-second jitter
	// between the item and the stored row is tolerated by comparing at
	// second granularity.
	closeIdx := -1
	for i := range candidates {
		if candidates[i].Timestamp.Truncate(time.Second).Equal(closeSec) {
			closeIdx = i
			break
		}
	}
	if closeIdx < 0 {
		return nil
	}
	closeStmt := candidates[closeIdx]

	var before []models.Execution
	for i := range candidates {
		if candidates[i].Timestamp.Before(closeStmt.Timestamp) {
			before = append(before, candidates[i])
		}
	}

	targetQty := target.quantity.Abs()
	if !targetQty.IsPositive() {
		return nil
	}
	closeIsSell := target.quantity.IsNegative()

	collected, ok := accumulate(before, targetQty, closeIsSell)
	if !ok {
		return nil
	}

	// collected arrives newest-first, so ties at second granularity must
	// fall back to the full timestamp or same-second siblings would keep
	// their reversed collection order.
	combined := append(collected, closeStmt)
	sort.SliceStable(combined, func(i, j int) bool {
		si, sj := combined[i].Timestamp.Truncate(time.Second), combined[j].Timestamp.Truncate(time.Second)
		if si.Equal(sj) {
			return combined[i].Timestamp.Before(combined[j].Timestamp)
		}
		return si.Before(sj)
	})

	return label(combined, closeIsSell)
}

// accumulate walks the pre-close executions newest-first, gathering
// opposite-direction size until it covers targetQty. Same-direction
// executions met along the way are gathered too as candidate partial
// closes. Two distinct stop branches: exact fill, and tolerated
// overshoot where the final opener supplies more than the close took
// out. ok=false when the walk exhausts the candidates short of the
// target.
func accumulate(before []models.Execution, targetQty decimal.Decimal, closeIsSell bool) ([]models.Execution, bool) {
	collected := make([]models.Execution, 0, len(before))
	acc := decimal.Zero

	for i := len(before) - 1; i >= 0; i-- {
		ex := before[i]
		isOpener := (closeIsSell && ex.Quantity.IsPositive()) ||
			(!closeIsSell && ex.Quantity.IsNegative())

		if !isOpener {
			// Same direction as the close: an intermediate trim, resolved
			// by position during labeling.
			collected = append(collected, ex)
			continue
		}

		acc = acc.Add(ex.Quantity.Abs())
		collected = append(collected, ex)

		if acc.Equal(targetQty) {
			// Exact fill: this is the opening statement.
			return collected, true
		}
		if acc.GreaterThan(targetQty) {
			// Overshoot: the opener supplied more than the close removed.
			// Tolerated, not rejected.
			return collected, true
		}
	}

	return nil, false
}

func label(ordered []models.Execution, closeIsSell bool) models.ActionChain {
	chain := make(models.ActionChain, len(ordered))
	last := len(ordered)

	for i := range ordered {
		ex := ordered[i]
		idx := i + 1

		var action string
		switch {
		case idx == 1:
			action = models.ActionOpenPosition
		case idx == last:
			action = models.ActionClosePosition
		default:
			// Interior entries compare against the opening direction,
			// which is opposite to the close's.
			openerIsBuy := closeIsSell
			if ex.Quantity.IsPositive() == openerIsBuy {
				action = models.ActionAddSize
			} else {
				action = models.ActionPartialClose
			}
		}

		qty, _ := ex.Quantity.Float64()
		entry := models.ChainEntry{
			ExecutionID: ex.ID,
			Action:      action,
			Quantity:    qty,
			Timestamp:   ex.Timestamp.UTC().Format(time.RFC3339Nano),
		}
		if ex.Price != nil {
			px, _ := ex.Price.Float64()
			entry.Price = &px
		}
		chain[strconv.Itoa(idx)] = entry
	}

	return chain
}

func filterWindow(execs []models.Execution, symbol string, startInclusive, endExclusive time.Time) []models.Execution {
	out := make([]models.Execution, 0, len(execs))
	for _, e := range execs {
		if e.Symbol != symbol {
			continue
		}
		if e.Timestamp.Before(startInclusive) || !e.Timestamp.Before(endExclusive) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
