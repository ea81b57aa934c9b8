package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"

	"github.com/kevinwong150/journalex-sub001/internal/models"
	chainsvc "github.com/kevinwong150/journalex-sub001/internal/modules/chain/service"
	"github.com/kevinwong150/journalex-sub001/internal/notify"
	"github.com/kevinwong150/journalex-sub001/pkg/logger"
)

// ClosedTradeSource yields the stored executions that closed a position
// (realized P/L present) inside a time range.
type ClosedTradeSource interface {
	FindClosedInRange(ctx context.Context, startInclusive, endExclusive time.Time) ([]models.Execution, error)
}

type Reconciler struct {
	client   *Client
	builder  *chainsvc.Builder
	source   ClosedTradeSource
	notifier notify.Notifier
	database string
}

func NewReconciler(client *Client, builder *chainsvc.Builder, source ClosedTradeSource, notifier notify.Notifier, database string) *Reconciler {
	return &Reconciler{
		client:   client,
		builder:  builder,
		source:   source,
		notifier: notifier,
		database: database,
	}
}

type RunSummary struct {
	RunID   string
	Created int
	Updated int
	Skipped int
	NoChain int
	Failed  int
}

func (s RunSummary) String() string {
	return fmt.Sprintf("sync %s: created=%d updated=%d skipped=%d no-chain=%d failed=%d",
		s.RunID, s.Created, s.Updated, s.Skipped, s.NoChain, s.Failed)
}

// SyncRange reconstructs a chain for every closing execution in the
// range and reconciles the derived trade record against the workspace:
// create when absent, update when any mapped property differs, skip
// when identical. Items without a chain are counted and skipped, never
// fatal to the run.
func (r *Reconciler) SyncRange(ctx context.Context, startInclusive, endExclusive time.Time) (RunSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "journal.sync")
	defer span.Finish()

	summary := RunSummary{RunID: uuid.NewString()}

	closed, err := r.source.FindClosedInRange(ctx, startInclusive, endExclusive)
	if err != nil {
		return summary, fmt.Errorf("Reconciler.SyncRange: %w", err)
	}
	if len(closed) == 0 {
		return summary, nil
	}

	items := make([]*models.TradeItem, 0, len(closed))
	for _, e := range closed {
		items = append(items, itemFromExecution(e))
	}

	chains := r.builder.BuildActionChainsBatch(ctx, items)

	for _, item := range items {
		chain := chains[item]
		if chain == nil {
			summary.NoChain++
			logger.Info("journal: no chain for %s close at %s", item.Symbol(), item.Datetime)
			continue
		}

		props := MapTradeProperties(*item, chain)
		dedup := DedupKey(*item)

		existing, err := r.client.FindRecord(ctx, r.database, dedup)
		if err != nil {
			summary.Failed++
			logger.Error("journal: find %s: %v", dedup, err)
			continue
		}
		props["Dedup Key"] = dedup

		switch {
		case existing == nil:
			if err := r.client.CreateRecord(ctx, r.database, props); err != nil {
				summary.Failed++
				logger.Error("journal: create %s: %v", dedup, err)
				continue
			}
			summary.Created++
		case propsDiffer(existing.Properties, props):
			if err := r.client.UpdateRecord(ctx, existing.ID, props); err != nil {
				summary.Failed++
				logger.Error("journal: update %s: %v", dedup, err)
				continue
			}
			summary.Updated++
		default:
			summary.Skipped++
		}
	}

	logger.Info("journal: %s", summary.String())
	if r.notifier != nil {
		r.notifier.Sendf("journalex %s", summary.String())
	}
	return summary, nil
}

func itemFromExecution(e models.Execution) *models.TradeItem {
	item := &models.TradeItem{
		Datetime: e.Timestamp.UTC().Format(time.RFC3339Nano),
		Ticker:   e.Symbol,
		Quantity: e.Quantity.String(),
	}
	if e.RealizedPL != nil {
		item.RealizedPL = e.RealizedPL.String()
	}
	return item
}

// propsDiffer reports whether any desired property is missing or
// different in the existing record. Extra properties living only in the
// workspace are left alone.
func propsDiffer(existing, desired map[string]string) bool {
	for k, v := range desired {
		if existing[k] != v {
			return true
		}
	}
	return false
}
