package settings

import (
	"go.uber.org/fx"

	"github.com/kevinwong150/journalex-sub001/internal/modules/settings/pg"
)

func Module() fx.Option {
	return fx.Module("settings",
		fx.Provide(
			pg.NewSettings, // *pg.Settings
		),
	)
}
