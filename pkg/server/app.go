package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hohl-rocks/relay/pkg/completion"
	"hohl-rocks/relay/pkg/config"
	"hohl-rocks/relay/pkg/limits/ratelimit"
	"hohl-rocks/relay/pkg/news"
	"hohl-rocks/relay/pkg/prompts"
	"hohl-rocks/relay/pkg/providerfactory"
	"hohl-rocks/relay/pkg/proxy/handlers"
	"hohl-rocks/relay/pkg/relay"
	"hohl-rocks/relay/pkg/replicate"
	"hohl-rocks/relay/pkg/routing"
	"hohl-rocks/relay/pkg/search/tavily"
	"hohl-rocks/relay/pkg/telemetry/health"
	"hohl-rocks/relay/pkg/telemetry/metrics"
	"hohl-rocks/relay/pkg/telemetry/tracing"
)

// App holds every collaborator of the service. Build creates it from a
// configuration; the CLI uses it for one-shot commands as well as for
// serving.
type App struct {
	Config *config.Config

	Credentials routing.Credentials
	Providers   *providerfactory.Manager
	Relay       *relay.Relay
	Completion  *completion.Facade

	Prompts  *prompts.Catalog
	Search   *tavily.Client
	News     *news.Service
	Ingester *news.Ingester

	Replicate *replicate.Client
	Limiter   *ratelimit.Limiter
	Checker   *health.Checker
	Metrics   *metrics.Collector
	Tracer    *tracing.Tracer
	Version   health.VersionInfo
}

// Build wires an App from cfg. Providers without an API key are skipped;
// a service without any provider still starts and answers with error
// fragments and placeholders.
func Build(cfg *config.Config, version health.VersionInfo) (*App, error) {
	a := &App{Config: cfg, Version: version}

	catalog, err := prompts.Load(cfg.Prompts.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	a.Prompts = catalog

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(version.Version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.Tracer = tracer

	if cfg.Telemetry.Metrics.Enabled {
		a.Metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	a.Credentials = routing.NewCredentials(cfg.Credentials()...)
	a.Providers = providerfactory.NewManager(providerfactory.Options{
		Referer: cfg.Providers.Referer,
		Title:   cfg.Providers.Title,
		Client:  cfg.ClientConfig(),
	})
	if err := a.Providers.Load(a.Credentials.List()); err != nil {
		slog.Warn("some providers failed to initialize", "error", err)
	}

	a.Relay = relay.New(a.Credentials, a.Providers, relay.ConfigFrom(cfg.Relay), relay.WithMetrics(a.Metrics))
	a.Completion = completion.New(a.Credentials, a.Providers,
		completion.WithTimeout(cfg.Relay.StreamTimeout),
		completion.WithMetrics(a.Metrics),
	)

	a.Search = tavily.FromConfig(cfg.Search.Tavily)
	a.News = news.NewService(a.Search, cfg.News.CacheTTL, a.Metrics)
	a.Ingester = news.NewIngester(a.Search, cfg.Ingest.Region, cfg.Ingest.OutDir, a.Metrics)

	a.Replicate = replicate.New(cfg.Replicate)

	if cfg.Limits.RateLimit.Enabled {
		a.Limiter = ratelimit.New(ratelimit.FromConfig(cfg.Limits.RateLimit))
	}

	a.Checker = health.New(cfg.Telemetry.Health.CheckTimeout)
	if cfg.Telemetry.Health.ProbeProviders {
		a.Checker.RegisterCheck("providers", handlers.ProviderCheck(a.Providers))
	}

	slog.Info("application initialized",
		"providers", a.Providers.Names(),
		"active_model", routing.ActiveModel(a.Credentials),
		"prompts", a.Prompts.Len(),
		"search", a.Search.Configured(),
		"replicate", a.Replicate.Configured(),
	)
	return a, nil
}

// Close releases provider transports and flushes pending spans.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Providers != nil {
		if err := a.Providers.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close providers: %w", err))
		}
	}
	if a.Tracer != nil {
		if err := a.Tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
	}
	return errors.Join(errs...)
}
