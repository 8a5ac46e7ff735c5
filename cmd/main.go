package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angeloszaimis/online-balancer/config"
	"github.com/angeloszaimis/online-balancer/internal/balancer"
	"github.com/angeloszaimis/online-balancer/internal/circuitbreaker"
	"github.com/angeloszaimis/online-balancer/internal/handler"
	"github.com/angeloszaimis/online-balancer/internal/healthcheck"
	"github.com/angeloszaimis/online-balancer/internal/httpserver"
	"github.com/angeloszaimis/online-balancer/internal/metrics"
	"github.com/angeloszaimis/online-balancer/internal/onlineconfig"
	"github.com/angeloszaimis/online-balancer/internal/pool"
	"github.com/angeloszaimis/online-balancer/internal/sip008"
	"github.com/angeloszaimis/online-balancer/internal/strategy"
	"github.com/angeloszaimis/online-balancer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector := metrics.NewCollector(1000, log)
	collector.Start(ctx)

	p, err := initializePool(cfg, log)
	if err != nil {
		log.Error("Failed to initialize server pool", slog.Any("err", err))
		os.Exit(1)
	}

	strat, err := createStrategy(log, cfg.Strategy.Type)
	if err != nil {
		log.Error("Failed to create strategy",
			slog.String("strategy", cfg.Strategy.Type),
			slog.Any("err", err))
		os.Exit(1)
	}

	bal := balancer.NewBalancer(strat)
	breakers := circuitbreaker.NewRegistry(5, 30*time.Second)

	healthCheckInterval, err := time.ParseDuration(cfg.HealthCheck.Interval)
	if err != nil {
		log.Error("Invalid health check interval", slog.Any("err", err))
		os.Exit(1)
	}
	go healthcheck.Run(ctx, p, healthCheckInterval, log, collector)

	// The first sync of every online config source runs synchronously:
	// a source that cannot deliver a valid server list fails startup.
	if err := startOnlineConfigServices(ctx, cfg, p, log, collector); err != nil {
		log.Error("Failed to start online config services", slog.Any("err", err))
		os.Exit(1)
	}

	proxyHandler := handler.NewProxyHandler(log, bal, p, breakers, collector)

	mux := setupRouter(proxyHandler, collector, breakers, cfg.Strategy.Type)

	srv, err := httpserver.New(cfg.Server.Address, mux)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting balancer", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func initializePool(cfg *config.Config, log *slog.Logger) (*pool.Pool, error) {
	p := pool.NewPool()

	for _, upstream := range cfg.Upstreams {
		u, err := url.Parse(upstream.URL)

		if err != nil {
			log.Error("Failed to parse URL",
				slog.String("url", upstream.URL),
				slog.String("error", err.Error()))
			continue
		}

		p.Add(pool.New("", u, upstream.Weight, pool.SourceStatic))
	}

	if cfg.UpstreamsFile != "" {
		servers, err := loadUpstreamsFile(cfg.UpstreamsFile)
		if err != nil {
			return nil, err
		}
		p.Add(servers...)
	}

	if p.Len() == 0 && len(cfg.OnlineConfigs) == 0 {
		return nil, os.ErrInvalid
	}

	return p, nil
}

// loadUpstreamsFile reads a local SIP008 document and returns its entries
// tagged as static.
func loadUpstreamsFile(path string) ([]*pool.Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := sip008.Parse(string(data), sip008.VariantLocal)
	if err != nil {
		return nil, err
	}

	if err := doc.CheckIntegrity(); err != nil {
		return nil, err
	}

	servers := make([]*pool.Server, 0, len(doc.Servers))
	for _, entry := range doc.Servers {
		weight := entry.Weight
		if weight == 0 {
			weight = 1
		}
		servers = append(servers, pool.New(entry.ID, entry.URL(), weight, pool.SourceStatic))
	}

	return servers, nil
}

func startOnlineConfigServices(
	ctx context.Context,
	cfg *config.Config,
	p *pool.Pool,
	log *slog.Logger,
	collector *metrics.Collector,
) error {
	// One client shared by every service; it is safe for concurrent use.
	client := &http.Client{}

	for _, src := range cfg.OnlineConfigs {
		interval, err := time.ParseDuration(src.Interval)
		if err != nil {
			return err
		}
		timeout, err := time.ParseDuration(src.Timeout)
		if err != nil {
			return err
		}

		b := onlineconfig.NewBuilder(client, src.URL, p, pool.OnlineSource(src.Name), log)
		b.SetUpdateInterval(interval)
		b.SetCycleTimeout(timeout)
		b.SetMetricsCollector(collector)

		svc, err := b.Build(ctx)
		if err != nil {
			return err
		}

		log.Info("Online config source loaded",
			slog.String("name", src.Name),
			slog.String("url", src.URL),
			slog.Int("servers", len(p.BySource(svc.Source()))))

		go svc.Run(ctx)
	}

	return nil
}

func createStrategy(logger *slog.Logger, strategyType string) (strategy.Strategy, error) {
	switch strategyType {
	case "round-robin":
		return strategy.NewRoundRobinStrategy(), nil
	case "random":
		return strategy.NewRandomStrategy(), nil
	case "least-conn":
		return strategy.NewLeastConnStrategy(), nil
	default:
		logger.Warn("Unkown strategy, defaulting to round-robin", slog.String("requested", strategyType))
		return strategy.NewRoundRobinStrategy(), nil
	}
}
