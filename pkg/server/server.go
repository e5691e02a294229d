package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"hohl-rocks/relay/pkg/news"
	"hohl-rocks/relay/pkg/prompts"
	"hohl-rocks/relay/pkg/proxy/handlers"
	"hohl-rocks/relay/pkg/proxy/middleware"
	"hohl-rocks/relay/pkg/telemetry/health"
	"hohl-rocks/relay/pkg/telemetry/tracing"
)

// RateLimitedPrefixes are the path prefixes subject to per-client rate
// limiting.
var RateLimitedPrefixes = []string{"/api/", "/run"}

// janitorInterval is the period of the rate limiter's idle sweep.
const janitorInterval = time.Minute

// Server is the HTTP server of the relay service.
type Server struct {
	app          *App
	handler      http.Handler
	httpServer   *http.Server
	shutdownOnce sync.Once
	shutdownErr  error
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a server for app. Routes and middleware are set up once.
func New(app *App) *Server {
	s := &Server{app: app}
	s.handler = s.setupRoutes()

	cfg := app.Config.Server
	s.httpServer = &http.Server{
		Addr:           cfg.ListenAddress,
		Handler:        s.handler,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}
	return s
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is cancelled
// or the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and runs the background jobs: the news
// ingest schedule, the prompt file watcher, the rate limiter janitor and
// provider health checks. All of them stop when ctx is cancelled, after
// which the server shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting relay server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if err := s.startJobs(gctx, g); err != nil {
		slog.Error("failed to start background jobs", "error", err)
		g.Go(func() error { return err })
	}

	g.Go(func() error {
		<-gctx.Done()
		return s.Shutdown(context.Background())
	})

	return g.Wait()
}

func (s *Server) startJobs(ctx context.Context, g *errgroup.Group) error {
	cfg := s.app.Config

	if s.app.Limiter != nil {
		s.app.Limiter.StartJanitor(ctx, janitorInterval)
	}

	if cfg.Providers.HealthCheckInterval > 0 && s.app.Providers != nil {
		s.app.Providers.StartHealthChecks()
	}

	if cfg.Ingest.Enabled && s.app.Ingester != nil {
		delay := time.Duration(-1)
		if cfg.Ingest.RunOnStart {
			delay = 5 * time.Second
		}
		scheduler := news.NewScheduler(s.app.Ingester, cfg.Ingest.Cron, delay)
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		if next := scheduler.NextRun(); next != nil {
			slog.Info("news ingest scheduled", "next_run", next.Format(time.RFC3339))
		}
		g.Go(func() error {
			<-ctx.Done()
			scheduler.Stop()
			return nil
		})
	}

	if cfg.Prompts.Watch && s.app.Prompts != nil && s.app.Prompts.Path() != "" {
		watcher, err := prompts.NewWatcher(s.app.Prompts, prompts.DefaultDebounce, slog.Default())
		if err != nil {
			return err
		}
		g.Go(func() error {
			defer watcher.Stop()
			return watcher.Watch(ctx, func(err error) {
				if err == nil {
					slog.Info("prompt catalog reloaded", "prompts", s.app.Prompts.Len())
				}
			})
		})
	}
	return nil
}

// Shutdown gracefully shuts down the server. Only the first call has an
// effect; later calls return its result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		timeout := s.app.Config.Server.ShutdownTimeout
		slog.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during server shutdown", "error", err)
			s.shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("relay server stopped")
	})
	return s.shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// setupRoutes registers the routes and wraps the mux in the middleware
// chain.
func (s *Server) setupRoutes() http.Handler {
	app := s.app
	cfg := app.Config
	maxBody := cfg.Server.MaxBodyBytes

	mux := http.NewServeMux()
	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, middleware.Routed(h))
	}

	run := handlers.NewRunHandler(app.Relay, app.Prompts)
	run.Temperature = cfg.Relay.Temperature
	run.MaxOutputTokens = cfg.Relay.MaxOutputTokens
	run.MaxBodyBytes = maxBody
	streaming := middleware.StreamingMiddleware(0)(run)
	handle("/run", streaming)
	handle("/api/run", streaming)

	newsHandler := handlers.NewNewsHandler(app.News)
	handle("GET /api/news", http.HandlerFunc(newsHandler.News))
	handle("GET /api/daily", http.HandlerFunc(newsHandler.Daily))

	research := handlers.NewResearchHandler(app.Search, app.Completion)
	research.MaxBodyBytes = maxBody
	handle("POST /api/research", research)

	rep := handlers.NewReplicateHandler(app.Replicate)
	rep.MaxBodyBytes = maxBody
	handle("POST /api/replicate", middleware.StreamingMiddleware(replicateBudget(cfg.Replicate.MaxAttempts, cfg.Replicate.PollInterval, cfg.Server.WriteTimeout))(rep))

	handle("GET /api/prompts", handlers.NewPromptsHandler(app.Prompts))

	hc := cfg.Telemetry.Health
	handle("GET "+hc.LivenessPath, handlers.NewHealthHandler(cfg.Server.Env))
	handle("GET "+hc.ReadinessPath, handlers.NewReadyHandler(app.Credentials, app.Checker))
	handle("GET "+hc.VersionPath, health.VersionHandler(app.Version))

	if cfg.Telemetry.Metrics.Enabled && app.Metrics != nil {
		handle("GET "+cfg.Telemetry.Metrics.Path, app.Metrics.Handler())
	}

	handle("GET /{$}", http.HandlerFunc(handlers.RootHandler))
	handle("/", http.HandlerFunc(handlers.NotFoundHandler))

	var handler http.Handler = mux

	handler = middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Limiter:    app.Limiter,
		TrustProxy: cfg.Limits.RateLimit.TrustProxy,
		Prefixes:   RateLimitedPrefixes,
		Metrics:    app.Metrics,
	})(handler)

	handler = middleware.CORSMiddleware(middleware.CORSConfigFrom(cfg.Server.CORS))(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(app.Metrics)(handler)

	if cfg.Telemetry.Tracing.Enabled {
		handler = tracing.HTTPMiddleware(handler)
	}

	// Recovery middleware (outermost)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// replicateBudget is the write deadline of a replicate call: the full poll
// budget plus the regular write timeout for creating the prediction.
func replicateBudget(attempts int, interval, writeTimeout time.Duration) time.Duration {
	return time.Duration(attempts)*interval + writeTimeout
}
