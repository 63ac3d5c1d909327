package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"shareit/internal/handler/api"
	"shareit/internal/handler/middleware"
	"shareit/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	bookingHandler *api.BookingHandler,
	itemHandler *api.ItemHandler,
	userHandler *api.UserHandler,
	identity *middleware.IdentityMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, bookingHandler, itemHandler, userHandler, identity)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

// Paths follow the original gateway contract: no /api prefix, identity via
// the X-Sharer-User-Id header on booking and item routes.
func setupRoutes(
	engine *gin.Engine,
	bookingHandler *api.BookingHandler,
	itemHandler *api.ItemHandler,
	userHandler *api.UserHandler,
	identity *middleware.IdentityMiddleware,
) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	bookings := engine.Group("/bookings")
	bookings.Use(identity.RequireUser())
	{
		addRoutes(bookings, []route{
			{Method: http.MethodPost, Path: "", Handler: bookingHandler.Create},
			{Method: http.MethodGet, Path: "", Handler: bookingHandler.ListByBooker},
			{Method: http.MethodGet, Path: "/owner", Handler: bookingHandler.ListByOwner},
			{Method: http.MethodGet, Path: "/:bookingId", Handler: bookingHandler.Get},
			{Method: http.MethodPatch, Path: "/:bookingId", Handler: bookingHandler.Resolve},
		})
	}

	items := engine.Group("/items")
	items.Use(identity.RequireUser())
	{
		addRoutes(items, []route{
			{Method: http.MethodPost, Path: "", Handler: itemHandler.Create},
			{Method: http.MethodGet, Path: "", Handler: itemHandler.ListByOwner},
			{Method: http.MethodGet, Path: "/:itemId", Handler: itemHandler.Get},
			{Method: http.MethodPatch, Path: "/:itemId", Handler: itemHandler.UpdateAvailability},
			{Method: http.MethodPost, Path: "/:itemId/comment", Handler: itemHandler.AddComment},
		})
	}

	users := engine.Group("/users")
	{
		addRoutes(users, []route{
			{Method: http.MethodPost, Path: "", Handler: userHandler.Create},
			{Method: http.MethodGet, Path: "/:userId", Handler: userHandler.Get},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
