package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/sleigh-balancer/internal/api"
	"github.com/eugenenazirov/sleigh-balancer/internal/balancer"
	"github.com/eugenenazirov/sleigh-balancer/internal/cache"
	"github.com/eugenenazirov/sleigh-balancer/internal/config"
	"github.com/eugenenazirov/sleigh-balancer/internal/metrics"
	"github.com/eugenenazirov/sleigh-balancer/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage  storage.Storage
	balancer balancer.Balancer
	recorder *metrics.Recorder
	results  *cache.Cache[balancer.Result]
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store := storage.NewMemoryStorage(storage.WithMaxWeights(cfg.MaxItems))
	if err := store.SetWeights(cfg.Weights); err != nil {
		return nil, fmt.Errorf("failed to apply initial weights: %w", err)
	}

	if cfg.WriteTimeout > 0 && cfg.SearchTimeout >= cfg.WriteTimeout {
		logger.Warn("search timeout is not shorter than the write timeout; slow searches will drop the connection",
			zap.Duration("search_timeout", cfg.SearchTimeout),
			zap.Duration("write_timeout", cfg.WriteTimeout),
		)
	}

	recorder := metrics.NewRecorder()
	results := cache.New[balancer.Result](cfg.CacheSize)
	b := balancer.New(
		balancer.WithLogger(logger.Named("balancer")),
		balancer.WithMaxItems(cfg.MaxItems),
		balancer.WithTimeout(cfg.SearchTimeout),
		balancer.WithExhaustive(cfg.Exhaustive),
		balancer.WithRecorder(recorder),
		balancer.WithCache(results),
	)

	handler := api.NewHandler(b, store)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithMetrics(recorder),
	)

	return &App{
		storage:  store,
		balancer: b,
		recorder: recorder,
		results:  results,
		handler:  handler,
		router:   apiRouter,
		logger:   logger,
		server:   NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// BuildRootHandler constructs the root HTTP handler that routes API and metrics requests.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/metrics", apiHandler)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/api/health", http.StatusTemporaryRedirect)
	}))
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Balancer exposes the configured balancer, shared by the HTTP handlers.
func (a *App) Balancer() balancer.Balancer {
	return a.balancer
}
