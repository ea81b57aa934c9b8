package service

import (
	"context"
	"time"

	"github.com/kevinwong150/journalex-sub001/internal/models"
	"github.com/kevinwong150/journalex-sub001/pkg/logger"
)

type window struct {
	symbol string
	day    time.Time
}

// BuildActionChainsBatch reconstructs chains for many closing items with
// one store query per distinct (symbol, day) pair instead of one per
// item. The result holds exactly one entry per input item, keyed by
// identity; a nil value marks the same no-chain outcomes as the
// single-item call. Failures are independent: one item without a chain
// never affects the others.
func (b *Builder) BuildActionChainsBatch(ctx context.Context, items []*models.TradeItem) map[*models.TradeItem]models.ActionChain {
	results := make(map[*models.TradeItem]models.ActionChain, len(items))
	targets := make(map[*models.TradeItem]closeTarget, len(items))
	prefetched := make(map[window][]models.Execution)

	for _, item := range items {
		results[item] = nil
		if item == nil {
			continue
		}
		target, ok := extractTarget(*item)
		if !ok {
			continue
		}
		targets[item] = target

		w := window{symbol: target.symbol, day: startOfDay(target.closedAt)}
		if _, done := prefetched[w]; done {
			continue
		}
		// Fetch the whole trading day once; per-item close windows are
		// cut from this slice inside BuildActionChain.
		execs, err := b.store.FindBySymbolAndTimeRange(ctx, w.symbol, w.day, w.day.Add(24*time.Hour))
		if err != nil {
			logger.Error("chain: batch fetch %s %s: %v", w.symbol, w.day.Format("2006-01-02"), err)
			execs = nil
		}
		if execs == nil {
			execs = []models.Execution{}
		}
		prefetched[w] = execs
	}

	for _, item := range items {
		target, ok := targets[item]
		if !ok {
			continue
		}
		w := window{symbol: target.symbol, day: startOfDay(target.closedAt)}
		results[item] = b.BuildActionChain(ctx, *item, prefetched[w])
	}

	return results
}
