package providers

import (
	"context"
	"log/slog"
	"time"
)

// StartHealthChecker starts a background goroutine that pings the adapter's
// health endpoint periodically. It runs until the client is closed or ctx is
// cancelled. While the provider is unhealthy the interval backs off.
func (c *HTTPClient) StartHealthChecker(ctx context.Context, adapter Adapter) {
	if _, ok := adapter.(Pinger); !ok {
		slog.Debug("provider does not support health checking", "provider", c.config.Name)
		return
	}
	c.checkerStarted = true
	go c.runHealthChecker(ctx, adapter)
}

func (c *HTTPClient) runHealthChecker(ctx context.Context, adapter Adapter) {
	defer close(c.healthCheckStopped)

	interval := c.config.HealthCheckInterval
	if interval == 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("health checker started",
		"provider", c.config.Name,
		"interval", interval,
	)

	for {
		select {
		case <-ctx.Done():
			return

		case <-c.stopHealthCheck:
			return

		case <-ticker.C:
			start := time.Now()
			if err := c.Ping(ctx, adapter); err != nil {
				slog.Warn("health check failed",
					"provider", c.config.Name,
					"error", err,
					"latency", time.Since(start),
				)
			}

			if !c.IsHealthy() {
				next := calculateBackoff(c.GetHealth().ConsecutiveFailures, interval)
				ticker.Reset(next)
				slog.Debug("health check backoff",
					"provider", c.config.Name,
					"next_check_in", next,
				)
			} else {
				ticker.Reset(interval)
			}
		}
	}
}

// calculateBackoff returns baseInterval * 2^failures, capped at 10x the base
// interval and at five minutes.
func calculateBackoff(consecutiveFailures int, baseInterval time.Duration) time.Duration {
	if consecutiveFailures <= 0 {
		return baseInterval
	}

	multiplier := 1 << uint(min(consecutiveFailures, 8))
	if multiplier > 10 {
		multiplier = 10
	}

	backoff := baseInterval * time.Duration(multiplier)
	if maxBackoff := 5 * time.Minute; backoff > maxBackoff {
		backoff = maxBackoff
	}
	return backoff
}
