package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/pictag/internal/services"
	"github.com/desertthunder/pictag/internal/shared"
)

// Gateway holds the collaborators shared by every handler. Handlers keep no
// state of their own; all session state lives in the request cookies.
type Gateway struct {
	config   *shared.Config
	backend  *services.BackendClient
	logger   *log.Logger
	bus      *shared.Bus
	inflight *Counter
}

// New creates a gateway. A nil backend gets a default client built from the
// configured base URL and timeout.
func New(config *shared.Config, backend *services.BackendClient, bus *shared.Bus, logger *log.Logger) *Gateway {
	if config == nil {
		config = shared.DefaultConfig()
	}
	if backend == nil {
		backend = services.NewBackendClient(config.Backend.BaseURL, &http.Client{Timeout: config.Backend.Timeout()})
	}
	if bus == nil {
		bus = shared.NewBus()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Gateway{
		config:   config,
		backend:  backend,
		logger:   logger,
		bus:      bus,
		inflight: NewCounter(),
	}
}

// Counter exposes the in-flight request counter, used by the health endpoint
// and by callers that surface a pending-request indicator.
func (g *Gateway) Counter() *Counter {
	return g.inflight
}

// Handler builds the router with the full middleware stack and route table.
func (g *Gateway) Handler() http.Handler {
	router := NewBasicRouter()

	router.Use(Recover(g.logger))
	router.Use(RequestLogger(g.logger))
	router.Use(InFlight(g.inflight))
	if g.config.Server.RateLimit > 0 {
		limiter := rate.NewLimiter(rate.Limit(g.config.Server.RateLimit), int(g.config.Server.RateLimit))
		router.Use(RateLimit(limiter))
	}

	router.Handle(http.MethodPost, "/auth/login", http.HandlerFunc(g.handleLogin))
	router.Handle(http.MethodPost, "/auth/refresh", http.HandlerFunc(g.handleRefresh))
	router.Handle(http.MethodPost, "/auth/logout", http.HandlerFunc(g.handleLogout))

	router.Handle(http.MethodGet, "/events", http.HandlerFunc(g.handleEvents))
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(g.handleHealth))

	for _, rt := range g.routes() {
		router.Handle(rt.method, rt.pattern, g.proxyHandler(rt))
	}

	return router
}

// Serve runs the gateway HTTP server until the context is cancelled, then
// shuts down gracefully.
func (g *Gateway) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              g.config.Server.Addr(),
		Handler:           g.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("gateway listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
