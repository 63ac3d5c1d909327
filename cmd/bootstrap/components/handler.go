package components

import (
	"shareit/internal/handler"
	"shareit/internal/handler/api"
	"shareit/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewItemHandler,
		api.NewUserHandler,
		middleware.NewIdentityMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
