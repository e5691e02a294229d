// Package health runs readiness checks and serves build information.
//
// The HTTP shapes of /healthz and /readyz belong to the proxy handlers;
// this package only aggregates named checks, each bounded by a short
// deadline so a slow provider probe never stalls the probe endpoint.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("providers_configured", func(ctx context.Context) error { ... })
//	report := checker.CheckReadiness(ctx)
package health
