// Package logging configures log/slog for the relay.
//
// New returns a *slog.Logger whose handler adds request-scoped fields from
// the context (request_id, provider, trace_id) and masks provider secrets in
// string attributes before they are written:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", RedactSecrets: true})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	slog.InfoContext(ctx, "stream started", "provider", "anthropic")
//
// Masked forms keep a short prefix for identification:
//
//   - sk-ant-api03-abc… → sk-a***
//   - Authorization: Bearer abc… → Bearer ***
//   - tvly-…, r8_…, sk-or-… → prefix + ***
package logging
