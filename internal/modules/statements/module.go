package statements

import (
	"go.uber.org/fx"

	"github.com/kevinwong150/journalex-sub001/internal/modules/statements/pg"
	"github.com/kevinwong150/journalex-sub001/internal/modules/statements/service"
)

func Module() fx.Option {
	return fx.Module("statements",
		fx.Provide(
			pg.NewExecutions, // *pg.Executions
		),
		fx.Provide(
			func(r *pg.Executions) service.ExecutionRepo {
				return r
			},
			service.NewIngestor,
		),
	)
}
