// Package server provides the HTTP server of the relay service and the
// lifecycle of its background jobs.
//
// # Basic Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides(path)
//	app, err := server.Build(cfg, health.NewVersionInfo(version, commit, date))
//	defer app.Close(context.Background())
//
//	srv := server.New(app)
//	err = srv.Run(ctx) // returns after ctx is cancelled and shutdown finished
//
// Run starts the news ingest schedule, the prompt file watcher, the rate
// limiter janitor and provider health checks next to the listener. They
// share one errgroup: the first failure cancels the others, and cancelling
// ctx shuts the server down gracefully. Shutdown may also be called
// directly; only the first call takes effect.
//
// # Routes
//
//	/run, /api/run          GET usage, POST event stream (no write timeout)
//	GET  /api/news          curated news list
//	GET  /api/daily         daily list with timestamp
//	POST /api/research      search-backed summary or demo answer
//	POST /api/replicate     Replicate prediction, polled to completion
//	GET  /api/prompts       prompt catalog ids
//	GET  /healthz           liveness
//	GET  /readyz            readiness (credentials, optional provider probe)
//	GET  /version           build information
//	GET  /metrics           Prometheus scrape endpoint, when enabled
//	GET  /                  plain text banner
//
// Any other path answers 404 {"error":"not_found"}.
//
// # Middleware
//
// The mux is wrapped as
//
//	Recovery(Tracing?(Logging(RequestID(CORS(RateLimit(mux))))))
//
// Rate limiting applies to /api/ and /run paths only.
package server
