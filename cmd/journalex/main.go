package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"github.com/kevinwong150/journalex-sub001/internal/modules/chain"
	"github.com/kevinwong150/journalex-sub001/internal/modules/config"
	"github.com/kevinwong150/journalex-sub001/internal/modules/health"
	"github.com/kevinwong150/journalex-sub001/internal/modules/journal"
	"github.com/kevinwong150/journalex-sub001/internal/modules/postgres"
	"github.com/kevinwong150/journalex-sub001/internal/modules/settings"
	"github.com/kevinwong150/journalex-sub001/internal/modules/statements"
	"github.com/kevinwong150/journalex-sub001/pkg/logger"
	"github.com/kevinwong150/journalex-sub001/pkg/tracing"
)

func main() {
	logger.SetServiceName("journalex")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		statements.Module(),
		chain.Module(),
		settings.Module(),
		journal.Module(),
		health.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
			if !cfg.Jaeger.Enabled {
				return
			}
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				logger.Error("tracer init: %v", err)
				return
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
		}),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	<-app.Done()
	_ = app.Stop(context.Background())
}
