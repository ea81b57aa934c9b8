package chain

import (
	"go.uber.org/fx"

	"github.com/kevinwong150/journalex-sub001/internal/modules/chain/service"
	"github.com/kevinwong150/journalex-sub001/internal/modules/statements/pg"
)

func Module() fx.Option {
	return fx.Module("chain",
		fx.Provide(
			func(r *pg.Executions) service.ExecutionStore {
				return r
			},
			service.NewBuilder,
		),
	)
}
