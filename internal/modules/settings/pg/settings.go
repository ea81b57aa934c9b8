package pg

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"

	"github.com/kevinwong150/journalex-sub001/pkg/db"
)

// Settings implement db store for key-value app settings, cached after
// first read.
type Settings struct {
	db *db.PgTxManager

	mu   sync.RWMutex
	data map[string][]byte
}

// NewSettings instance
func NewSettings(txm *db.PgTxManager) *Settings {
	return &Settings{
		db:   txm,
		data: make(map[string][]byte),
	}
}

func (s *Settings) Get(ctx context.Context, key string, out any) (found bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Settings.Get: %w", err)
		}
	}()

	s.mu.RLock()
	raw, cached := s.data[key]
	s.mu.RUnlock()

	if !cached {
		err = s.db.Conn().QueryRow(ctx, `
			SELECT value FROM settings WHERE key = $1`, key,
		).Scan(&raw)
		if err == pgx.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		s.mu.Lock()
		s.data[key] = raw
		s.mu.Unlock()
	}

	if err = sonic.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Settings) Put(ctx context.Context, key string, value any) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Settings.Put: %w", err)
		}
	}()

	raw, err := sonic.Marshal(value)
	if err != nil {
		return err
	}

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, txErr := tx.Exec(ctxTx, `
			INSERT INTO settings (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
			key, raw,
		)
		return txErr
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}
