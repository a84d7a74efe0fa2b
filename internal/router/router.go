package router // router wires middleware and routes onto an echo instance

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Julioneves77/sr-backend-api/internal/config"
	"github.com/Julioneves77/sr-backend-api/internal/handler"
	"github.com/Julioneves77/sr-backend-api/internal/middleware"
	"github.com/Julioneves77/sr-backend-api/internal/repository"
	"github.com/Julioneves77/sr-backend-api/internal/service"
)

// Deps bundles everything the routes need.  Redis and Events are optional.
type Deps struct {
	Config config.Config
	Store  repository.TicketStore
	Events service.EventPublisher
	Redis  *redis.Client
	Logger *slog.Logger
}

// RegisterRoutes installs the middleware chain and every route.  Requests
// flow through request id, CORS (before routing, so preflight always
// short-circuits), access log, panic recovery, API key gate and body limit
// before reaching a handler.
func RegisterRoutes(e *echo.Echo, d Deps) {
	if d.Store == nil {
		panic("nil store passed to RegisterRoutes")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bodyLimit := d.Config.BodyLimit
	if bodyLimit == "" {
		bodyLimit = "256K"
	}

	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	e.Pre(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Pre(middleware.CORS())
	e.Use(requestLogger(logger))
	e.Use(echomw.Recover())
	e.Use(middleware.APIKeyAuth(middleware.APIKeyConfig{
		Expected: d.Config.APIKey,
		Trace:    d.Config.AuthTrace,
		Logger:   logger,
	}))
	e.Use(echomw.BodyLimit(bodyLimit))

	health := handler.NewHealthHandler(d.Store)
	e.GET("/", health.Root)
	e.GET("/health", health.Health)

	debug := &handler.DebugHandler{
		Store:      d.Store,
		APIKey:     d.Config.APIKey,
		Production: d.Config.IsProduction(),
	}
	e.GET("/api/debug/tickets", debug.DumpTickets)

	tickets := handler.NewTicketHandler(d.Store, d.Events, logger)
	// Cache is attached per route; group-level middleware would turn 405s
	// under the prefix into 404s.
	cache := middleware.NewRedisCache(d.Config.Cache, d.Redis, logger)
	g := e.Group("/api/tickets")
	g.POST("", tickets.CreateTicket, cache)
	g.GET("", tickets.ListTickets, cache)
	g.GET("/:id", tickets.GetTicket, cache)
	g.PATCH("/:id", tickets.UpdateTicket, cache)
}

// requestLogger writes one slog record per request.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= 500 {
					level = slog.LevelError
				}
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}
