package biz

import "go.uber.org/fx"

var Module = fx.Module("biz",
	fx.Provide(NewFormUseCase),
	fx.Provide(NewCheckUseCase),
)
