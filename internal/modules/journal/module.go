package journal

import (
	"context"

	"go.uber.org/fx"

	chainsvc "github.com/kevinwong150/journalex-sub001/internal/modules/chain/service"
	"github.com/kevinwong150/journalex-sub001/internal/modules/config"
	"github.com/kevinwong150/journalex-sub001/internal/modules/journal/service"
	settingspg "github.com/kevinwong150/journalex-sub001/internal/modules/settings/pg"
	statementspg "github.com/kevinwong150/journalex-sub001/internal/modules/statements/pg"
	"github.com/kevinwong150/journalex-sub001/internal/notify"
	"github.com/kevinwong150/journalex-sub001/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			func(cfg *config.Config) *service.Client {
				return service.NewClient(cfg.Workspace.BaseURL, cfg.Workspace.Token)
			},
		),

		// Notifier: telegram when configured, stdout otherwise.
		fx.Provide(
			func(cfg *config.Config) notify.Notifier {
				if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
					return notify.NewStdout()
				}
				t, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
				if err != nil {
					logger.Error("journal: telegram notifier unavailable: %v", err)
					return notify.NewStdout()
				}
				return t
			},
		),

		fx.Provide(
			func(r *statementspg.Executions) service.ClosedTradeSource {
				return r
			},
			func(client *service.Client, builder *chainsvc.Builder, source service.ClosedTradeSource, n notify.Notifier, cfg *config.Config) *service.Reconciler {
				return service.NewReconciler(client, builder, source, n, cfg.Workspace.Database)
			},
			func(s *settingspg.Settings) service.SyncMarker {
				return s
			},
			func(reconciler *service.Reconciler, marker service.SyncMarker, cfg *config.Config) *service.Runner {
				return service.NewRunner(reconciler, marker, cfg.SyncInterval, cfg.SyncLookbackDays)
			},
		),

		fx.Invoke(func(
			lc fx.Lifecycle,
			r *service.Runner,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					r.Start(ctx)
					return nil
				},
			})
		}),
	)
}
