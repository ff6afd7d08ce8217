package api

import (
	"go.ule.co/platform/api/admin"
	"go.ule.co/platform/api/cron"
	"go.ule.co/platform/api/privacy"
	"go.ule.co/platform/core"
	"go.uber.org/fx"
)

// Module provides every route group to the HTTP service through the api group.
var Module = fx.Module("api",
	fx.Options(
		fx.Provide(NewCasbin),
		fx.Provide(
			asAPI(privacy.NewAPI),
			asAPI(cron.NewAPI),
			asAPI(admin.NewAPI),
		),
	),
)

func asAPI(constructor any) any {
	return fx.Annotate(
		constructor,
		fx.As(new(core.API)),
		fx.ResultTags(`group:"api"`),
	)
}
