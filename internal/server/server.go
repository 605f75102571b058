package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/gobychat/internal/config"
	"github.com/nfrund/gobychat/internal/hub"
	"github.com/nfrund/gobychat/internal/middleware"
	"github.com/nfrund/gobychat/internal/pubsub"
	"github.com/nfrund/gobychat/internal/rendering"
)

// Server holds the dependencies of the reference chat server.
type Server struct {
	E        *echo.Echo
	Cfg      *config.Config
	Registry *hub.Registry

	bus      *pubsub.WatermillBridge
	renderer rendering.Renderer
	log      *slog.Logger

	// ctx bounds the room hubs and every WebSocket connection.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server with its room registry seeded from cfg.DefaultRooms.
// Call RegisterRoutes before serving.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := pubsub.NewWatermillBridge()
	registry := hub.NewRegistry(ctx, bus, logger)
	if err := registry.Seed(cfg.DefaultRooms...); err != nil {
		cancel()
		_ = bus.Close()
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet},
	}))
	setupErrorHandling(e)

	return &Server{
		E:        e,
		Cfg:      cfg,
		Registry: registry,
		bus:      bus,
		renderer: rendering.NewNodeRenderer(),
		log:      logger,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Close stops every room hub, which disconnects all members, and closes the bus.
func (s *Server) Close() error {
	s.cancel()
	return s.bus.Close()
}

// setupErrorHandling logs unexpected errors with a stack trace before
// delegating the response to echo's default handler.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code >= http.StatusInternalServerError {
			logger := middleware.FromContext(c.Request().Context())
			logger.Error("Internal Server Error (Unhandled)",
				"error", err,
				"uri", c.Request().RequestURI,
				"stack_trace", string(debug.Stack()),
			)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
