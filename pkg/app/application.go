package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bookfast/internal/health"
	"bookfast/pkg/config"
	"bookfast/pkg/contracts"
	"bookfast/pkg/middleware"

	"github.com/gorilla/handlers"
	"github.com/julienschmidt/httprouter"
)

const (
	healthPath = "/health"
	readyPath  = "/ready"
	wsPath     = "/ws"
)

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	rateLimiter      *middleware.RateLimiter
	healthHandler    http.Handler
	wsHandler        http.Handler
	appHTTPHandler   http.Handler
	workers          []contracts.Worker
	shutdownHooks    []func()
	cancelWorkers    context.CancelFunc
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

// SetApp builds the three middleware chains. ws may be nil.
func (a *Application) SetApp(ws contracts.Handler, appHandlers ...contracts.Handler) {
	a.setHealthHandler()
	a.setWSHandler(ws)
	a.setAppHandler(appHandlers)
	a.setAppServer()
}

// AddWorker registers a background loop started by Run and stopped on shutdown.
func (a *Application) AddWorker(w contracts.Worker) {
	a.workers = append(a.workers, w)
}

// OnShutdown registers fn to run after the HTTP server and workers stop, in
// registration order.
func (a *Application) OnShutdown(fn func()) {
	a.shutdownHooks = append(a.shutdownHooks, fn)
}

func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	health.NewHealthHandler(a.cfg.Client, a.cfg.Log).RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

// setWSHandler skips the timeout, content type and idempotency layers, which
// would break a long-lived upgraded connection.
func (a *Application) setWSHandler(ws contracts.Handler) {
	if ws == nil {
		return
	}
	wsRouter := httprouter.New()
	ws.RegisterRoutes(wsRouter)

	var wsHTTPHandler http.Handler = wsRouter
	wsHTTPHandler = middleware.Authenticate([]byte(a.cfg.JWTSigningKey), a.cfg.Log)(wsHTTPHandler)
	wsHTTPHandler = middleware.RequestLogging(a.cfg.Log)(wsHTTPHandler)
	wsHTTPHandler = middleware.Recovery(a.cfg.Log)(wsHTTPHandler)
	a.wsHandler = wsHTTPHandler
	a.cfg.Log.Info("Websocket endpoint configured", "path", wsPath)
}

func (a *Application) setAppHandler(appHandlers []contracts.Handler) {
	appRouter := httprouter.New()
	for _, h := range appHandlers {
		h.RegisterRoutes(appRouter)
	}

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	a.rateLimiter = middleware.NewRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.ActorKeyExtractor,
		a.cfg.Log,
	)

	var appHTTPHandler http.Handler = appRouter
	appHTTPHandler = middleware.Idempotency(a.idempotencyStore, middleware.IdempotencyHeader)(appHTTPHandler)
	appHTTPHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(appHTTPHandler)
	appHTTPHandler = middleware.RateLimit(a.rateLimiter)(appHTTPHandler)
	appHTTPHandler = middleware.Authenticate([]byte(a.cfg.JWTSigningKey), a.cfg.Log)(appHTTPHandler)
	appHTTPHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHTTPHandler)
	appHTTPHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHTTPHandler)
	appHTTPHandler = middleware.RequestLogging(a.cfg.Log)(appHTTPHandler)
	appHTTPHandler = middleware.Recovery(a.cfg.Log)(appHTTPHandler)
	a.appHTTPHandler = appHTTPHandler
	a.cfg.Log.Info("Application endpoints configured with full security middleware stack")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle(healthPath, a.healthHandler)
	mux.Handle(readyPath, a.healthHandler)
	if a.wsHandler != nil {
		mux.Handle(wsPath, a.wsHandler)
	}
	mux.Handle("/", a.appHTTPHandler)

	cors := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(a.cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization", middleware.IdempotencyHeader, middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader, "Retry-After"}),
		handlers.AllowCredentials(),
	)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      cors(mux),
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	workerCtx, cancel := context.WithCancel(context.Background())
	a.cancelWorkers = cancel
	for _, w := range a.workers {
		w.Start(workerCtx)
	}

	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			a.stopBackground()
			a.cfg.Log.Fatal("HTTP server failed", "error", err)
		}

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}
	a.cfg.Log.Info("Server stopped gracefully")

	a.stopBackground()
	a.cfg.Log.Info("Shutdown complete")
}

func (a *Application) stopBackground() {
	a.cfg.Log.Info("Stopping background workers...")
	if a.cancelWorkers != nil {
		a.cancelWorkers()
	}
	for _, w := range a.workers {
		w.Stop()
	}
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	a.cfg.Log.Info("Background workers stopped")

	for _, fn := range a.shutdownHooks {
		fn()
	}
	a.cfg.GracefulShutdown()
}
