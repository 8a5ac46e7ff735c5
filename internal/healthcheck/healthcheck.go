package healthcheck

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/angeloszaimis/online-balancer/internal/metrics"
	"github.com/angeloszaimis/online-balancer/internal/pool"
)

// Run periodically checks every routable server in the pool by sending
// HTTP GET requests to its /health endpoint. The pool is re-read on each
// tick, so entries added or replaced by an online-config sync are picked
// up without restarting the checker.
func Run(
	ctx context.Context,
	p *pool.Pool,
	interval time.Duration,
	logger *slog.Logger,
	collector *metrics.Collector,
) {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Health check stopped")
			return

		case <-ticker.C:
			for _, server := range p.Servers() {
				if !server.Routable() {
					continue
				}
				checkServer(ctx, client, server, logger, collector)
			}
		}
	}
}

func checkServer(
	ctx context.Context,
	client *http.Client,
	server *pool.Server,
	logger *slog.Logger,
	collector *metrics.Collector,
) {
	healthURL := server.URL().ResolveReference(&url.URL{Path: "/health"})

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, healthURL.String(), nil)
	if err != nil {
		return
	}

	res, err := client.Do(req)
	if err != nil {
		if server.SetHealthy(false) {
			logger.Warn("Server is down",
				slog.String("server", server.URL().String()))
			emitHealthChanged(collector, server, false)
		}
		return
	}
	defer res.Body.Close()

	healthy := res.StatusCode == http.StatusOK
	changed := server.SetHealthy(healthy)

	if changed {
		if healthy {
			logger.Info("Server is back up",
				slog.String("server", server.URL().String()))
		} else {
			logger.Warn("Server is down",
				slog.String("server", server.URL().String()))
		}
		emitHealthChanged(collector, server, healthy)
	}
}

func emitHealthChanged(collector *metrics.Collector, server *pool.Server, healthy bool) {
	if collector == nil {
		return
	}

	collector.Emit(metrics.MetricEvent{
		Type:      metrics.EventHealthChanged,
		Timestamp: time.Now(),
		Server:    server.URL().String(),
		Healthy:   healthy,
	})
}
