// Package handlers implements the HTTP routes of the relay.
//
// # Routes
//
//	POST /run, /api/run        event stream of a relay call (RunHandler)
//	GET  /run, /api/run        usage JSON
//	GET  /api/news             {ok, items}
//	GET  /api/daily            {items, at}
//	POST /api/research         {answer, sources}
//	POST /api/replicate        prediction result
//	GET  /api/prompts          prompt catalog ids
//	GET  /healthz, /readyz     liveness and readiness
//	GET  /                     plain text banner
//
// Handlers depend on small interfaces (Streamer, Completer, PromptCatalog,
// NewsSource, Searcher, Predictor, Prober) so tests can substitute fakes.
// Errors are written through proxy.WriteHandledError and never contain
// upstream bodies.
//
// # Streaming
//
// RunHandler writes the SSE headers and flushes before the first fragment.
// Each fragment becomes one record. When a write fails the request context
// is cancelled, which makes the relay release its upstream connection.
package handlers
