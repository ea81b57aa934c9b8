package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/shopspring/decimal"

	"github.com/kevinwong150/journalex-sub001/internal/models"
	"github.com/kevinwong150/journalex-sub001/pkg/logger"
)

// ExecutionRepo is the slice of the store the ingestor needs.
type ExecutionRepo interface {
	FindByTimeRange(ctx context.Context, startInclusive, endExclusive time.Time) ([]models.Execution, error)
	InsertBatch(ctx context.Context, execs []models.Execution) (int, error)
}

type Ingestor struct {
	repo ExecutionRepo
}

func NewIngestor(repo ExecutionRepo) *Ingestor {
	return &Ingestor{repo: repo}
}

type IngestReport struct {
	RunID    string
	Inserted int
	Skipped  int
	Rejected int
}

// IngestStatement inserts the parsable, not-yet-stored rows of one
// statement. Rows without a normalizable key and zero-quantity rows are
// rejected; rows whose key already exists in the store (or earlier in
// the same statement) are skipped.
func (s *Ingestor) IngestStatement(ctx context.Context, rows []StatementRow) (report IngestReport, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "statements.ingest")
	defer span.Finish()

	defer func() {
		if err != nil {
			err = fmt.Errorf("Ingestor.IngestStatement: %w", err)
		}
	}()

	report = IngestReport{RunID: uuid.NewString()}

	type staged struct {
		key  StatementKey
		exec models.Execution
	}
	toStage := make([]staged, 0, len(rows))
	var minTime, maxTime time.Time

	for _, row := range rows {
		key, ok := NormalizeKey(row.TradeTime, row.Symbol, row.Quantity, row.Price)
		if !ok {
			report.Rejected++
			continue
		}
		qty, qErr := ParseDecimal(row.Quantity)
		if qErr != nil || qty.IsZero() {
			report.Rejected++
			continue
		}

		ts := time.UnixMicro(key.TimestampMicros).UTC()
		exec := models.Execution{
			Symbol:    key.Symbol,
			Side:      models.SideOf(qty),
			Timestamp: ts,
			Quantity:  qty,
		}
		if px, pErr := ParseDecimal(row.Price); pErr == nil {
			exec.Price = &px
		}
		if fees, fErr := ParseDecimal(row.Fees); fErr == nil {
			exec.Fees = fees
		} else {
			exec.Fees = decimal.Zero
		}
		if pl, plErr := ParseDecimal(row.RealizedPL); plErr == nil {
			exec.RealizedPL = &pl
		}

		if minTime.IsZero() || ts.Before(minTime) {
			minTime = ts
		}
		if ts.After(maxTime) {
			maxTime = ts
		}
		toStage = append(toStage, staged{key: key, exec: exec})
	}

	if len(toStage) == 0 {
		return report, nil
	}

	existing, err := s.repo.FindByTimeRange(ctx, minTime, maxTime.Add(time.Microsecond))
	if err != nil {
		return report, err
	}
	seen := make(map[StatementKey]struct{}, len(existing))
	for _, e := range existing {
		seen[KeyFromExecution(e)] = struct{}{}
	}

	fresh := make([]models.Execution, 0, len(toStage))
	for _, st := range toStage {
		if _, dup := seen[st.key]; dup {
			report.Skipped++
			continue
		}
		seen[st.key] = struct{}{}
		fresh = append(fresh, st.exec)
	}

	if len(fresh) > 0 {
		report.Inserted, err = s.repo.InsertBatch(ctx, fresh)
		if err != nil {
			return report, err
		}
	}

	logger.Info("statements: ingest run %s inserted=%d skipped=%d rejected=%d",
		report.RunID, report.Inserted, report.Skipped, report.Rejected)
	return report, nil
}
