package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	appcfg "github.com/kevinwong150/journalex-sub001/internal/modules/config"
	"github.com/kevinwong150/journalex-sub001/internal/modules/health/service"
	journalsvc "github.com/kevinwong150/journalex-sub001/internal/modules/journal/service"
	stmtsvc "github.com/kevinwong150/journalex-sub001/internal/modules/statements/service"
	"github.com/kevinwong150/journalex-sub001/pkg/logger"
)

type Config struct {
	Addr string // e.g. ":8080"
}

func NewConfig(cfg *appcfg.Config) Config {
	if cfg.Service.AdminPort != 0 {
		return Config{Addr: fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.AdminPort)}
	}
	return Config{Addr: ":8080"}
}

func NewMux(state *service.State, ingestor *stmtsvc.Ingestor, reconciler *journalsvc.Reconciler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"ready":     state.Ready(),
			"uptimeSec": int64(state.Uptime().Seconds()),
			"lastIngestUnix": func() int64 {
				t := state.LastIngest()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
			"lastSyncUnix": func() int64 {
				t := state.LastSync()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	// POST a raw activity-statement CSV export.
	mux.HandleFunc("/api/import", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		rows, err := stmtsvc.ParseStatement(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		report, err := ingestor.IngestStatement(r.Context(), rows)
		if err != nil {
			logger.Error("health: import failed: %v", err)
			http.Error(w, "import failed", http.StatusInternalServerError)
			return
		}
		state.TouchIngest(time.Now())

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	})

	// POST /api/sync?day=2025-01-31 reconciles one calendar day
	// (defaults to today, UTC).
	mux.HandleFunc("/api/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		day := time.Now().UTC()
		if raw := r.URL.Query().Get("day"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				http.Error(w, "bad day", http.StatusBadRequest)
				return
			}
			day = parsed
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

		summary, err := reconciler.SyncRange(r.Context(), start, start.Add(24*time.Hour))
		if err != nil {
			logger.Error("health: sync failed: %v", err)
			http.Error(w, "sync failed", http.StatusInternalServerError)
			return
		}
		state.TouchSync(time.Now())

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(summary)
	})

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux, state *service.State) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			state.SetReady(true)
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewConfig,
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
