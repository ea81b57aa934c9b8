package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/kevinwong150/journalex-sub001/internal/models"
	"github.com/kevinwong150/journalex-sub001/pkg/db"
)

// Executions implement db store
type Executions struct {
	db *db.PgTxManager
}

// NewExecutions instance
func NewExecutions(txm *db.PgTxManager) *Executions {
	return &Executions{db: txm}
}

const selectColumns = `
	id, symbol, side, ts,
	quantity::text, price::text, fees::text, realized_pl::text
`

func (r *Executions) InsertBatch(ctx context.Context, execs []models.Execution) (inserted int, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Executions.InsertBatch: %w", err)
		}
	}()

	err = r.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		for i := range execs {
			e := &execs[i]
			var price, pl *string
			if e.Price != nil {
				s := e.Price.String()
				price = &s
			}
			if e.RealizedPL != nil {
				s := e.RealizedPL.String()
				pl = &s
			}
			_, txErr := tx.Exec(ctxTx, `
				INSERT INTO executions (symbol, side, ts, quantity, price, fees, realized_pl)
				VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric)`,
				e.Symbol, e.Side, e.Timestamp, e.Quantity.String(), price, e.Fees.String(), pl,
			)
			if txErr != nil {
				return txErr
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *Executions) FindBySymbolAndTimeRange(ctx context.Context, symbol string, startInclusive, endExclusive time.Time) (execs []models.Execution, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Executions.FindBySymbolAndTimeRange: %w", err)
		}
	}()

	rows, err := r.db.Conn().Query(ctx, `
		SELECT `+selectColumns+`
		FROM executions
		WHERE symbol = $1 AND ts >= $2 AND ts < $3
		ORDER BY ts ASC`,
		symbol, startInclusive, endExclusive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExecutions(rows)
}

func (r *Executions) FindByTimeRange(ctx context.Context, startInclusive, endExclusive time.Time) (execs []models.Execution, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Executions.FindByTimeRange: %w", err)
		}
	}()

	rows, err := r.db.Conn().Query(ctx, `
		SELECT `+selectColumns+`
		FROM executions
		WHERE ts >= $1 AND ts < $2
		ORDER BY ts ASC`,
		startInclusive, endExclusive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExecutions(rows)
}

// FindClosedInRange returns executions carrying a realized P/L, i.e. the
// closing fills that trigger chain reconstruction.
func (r *Executions) FindClosedInRange(ctx context.Context, startInclusive, endExclusive time.Time) (execs []models.Execution, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Executions.FindClosedInRange: %w", err)
		}
	}()

	rows, err := r.db.Conn().Query(ctx, `
		SELECT `+selectColumns+`
		FROM executions
		WHERE realized_pl IS NOT NULL AND ts >= $1 AND ts < $2
		ORDER BY ts ASC`,
		startInclusive, endExclusive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExecutions(rows)
}

func scanExecutions(rows pgx.Rows) ([]models.Execution, error) {
	var execs []models.Execution
	for rows.Next() {
		var (
			e        models.Execution
			quantity string
			fees     *string
			price    *string
			pl       *string
		)
		if err := rows.Scan(&e.ID, &e.Symbol, &e.Side, &e.Timestamp, &quantity, &price, &fees, &pl); err != nil {
			return nil, err
		}

		var err error
		e.Quantity, err = decimal.NewFromString(quantity)
		if err != nil {
			return nil, err
		}
		e.Timestamp = e.Timestamp.UTC()
		if price != nil {
			px, pErr := decimal.NewFromString(*price)
			if pErr != nil {
				return nil, pErr
			}
			e.Price = &px
		}
		if fees != nil {
			f, fErr := decimal.NewFromString(*fees)
			if fErr != nil {
				return nil, fErr
			}
			e.Fees = f
		}
		if pl != nil {
			v, plErr := decimal.NewFromString(*pl)
			if plErr != nil {
				return nil, plErr
			}
			e.RealizedPL = &v
		}
		execs = append(execs, e)
	}
	return execs, rows.Err()
}
