package onlineconfig

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/online-balancer/internal/metrics"
	"github.com/angeloszaimis/online-balancer/internal/pool"
	"github.com/angeloszaimis/online-balancer/internal/sip008"
)

const (
	// DefaultUpdateInterval is the time between fetch cycles.
	DefaultUpdateInterval = 3600 * time.Second
	// DefaultCycleTimeout bounds one whole cycle, fetch through pool update.
	DefaultCycleTimeout = 30 * time.Second
)

// Builder assembles a Service. Build runs the first fetch cycle
// synchronously and fails if it does, so a constructed Service always
// starts from a known-good server set.
type Builder struct {
	client         *http.Client
	configURL      string
	pool           *pool.Pool
	source         pool.Source
	updateInterval time.Duration
	cycleTimeout   time.Duration
	logger         *slog.Logger
	collector      *metrics.Collector
}

// NewBuilder creates a Builder with default interval and timeout. The
// HTTP client may be shared across services; it must be safe for
// concurrent use, which the caller owns.
func NewBuilder(client *http.Client, configURL string, p *pool.Pool, source pool.Source, logger *slog.Logger) *Builder {
	return &Builder{
		client:         client,
		configURL:      configURL,
		pool:           p,
		source:         source,
		updateInterval: DefaultUpdateInterval,
		cycleTimeout:   DefaultCycleTimeout,
		logger:         logger,
	}
}

// SetUpdateInterval overrides the time between fetch cycles. Default is 3600s.
func (b *Builder) SetUpdateInterval(interval time.Duration) {
	b.updateInterval = interval
}

// SetCycleTimeout overrides the per-cycle deadline. Default is 30s.
func (b *Builder) SetCycleTimeout(timeout time.Duration) {
	b.cycleTimeout = timeout
}

// SetMetricsCollector attaches a collector for sync-cycle events.
func (b *Builder) SetMetricsCollector(collector *metrics.Collector) {
	b.collector = collector
}

// Build constructs the Service and runs one full cycle synchronously.
// Any cycle failure is propagated: the caller must not receive a service
// whose first sync never succeeded.
func (b *Builder) Build(ctx context.Context) (*Service, error) {
	svc := &Service{
		client:         b.client,
		configURL:      b.configURL,
		pool:           b.pool,
		source:         b.source,
		updateInterval: b.updateInterval,
		cycleTimeout:   b.cycleTimeout,
		logger:         b.logger,
		collector:      b.collector,
	}

	if err := svc.runOnce(ctx); err != nil {
		return nil, err
	}

	return svc, nil
}

// Service keeps the pool entries owned by one remote config source up to
// date. One cycle is ever in flight per service: Run awaits completion
// of each cycle before sleeping again.
type Service struct {
	client         *http.Client
	configURL      string
	pool           *pool.Pool
	source         pool.Source
	updateInterval time.Duration
	cycleTimeout   time.Duration
	logger         *slog.Logger
	collector      *metrics.Collector
}

// URL returns the remote config URL.
func (s *Service) URL() string {
	return s.configURL
}

// Source returns the pool tag owned by this service.
func (s *Service) Source() pool.Source {
	return s.source
}

// Run loops forever: sleep for the update interval, attempt one cycle,
// log and discard any failure, repeat. The previous server set is kept
// across failed cycles; a persistently failing source is retried at the
// same cadence indefinitely. Cancel ctx to stop.
func (s *Service) Run(ctx context.Context) {
	s.logger.Debug("server loader started",
		slog.String("url", s.configURL),
		slog.Duration("interval", s.updateInterval))

	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("server loader stopped", slog.String("url", s.configURL))
			return

		case <-ticker.C:
			if err := s.runOnce(ctx); err != nil {
				s.logger.Warn("online config sync failed, keeping previous servers",
					slog.String("url", s.configURL),
					slog.String("source", string(s.source)),
					slog.Any("err", err))
			}
		}
	}
}

// runOnce executes one cycle under the configured deadline.
func (s *Service) runOnce(ctx context.Context) error {
	cycleCtx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	start := time.Now()
	err := s.runOnceImpl(cycleCtx)
	elapsed := time.Since(start)

	if err != nil && errors.Is(cycleCtx.Err(), context.DeadlineExceeded) {
		s.logger.Error("server loader cycle timed out",
			slog.String("url", s.configURL),
			slog.Duration("timeout", s.cycleTimeout))
		s.emitSyncFailed(elapsed)
		return ErrCycleTimeout
	}

	if err != nil {
		s.logger.Error("server loader cycle failed",
			slog.String("url", s.configURL),
			slog.String("stage", string(FailedStage(err))),
			slog.Duration("elapsed", elapsed),
			slog.Any("err", err))
		s.emitSyncFailed(elapsed)
		return err
	}

	return nil
}

func (s *Service) runOnceImpl(ctx context.Context) error {
	cycleID := uuid.NewString()
	startTime := time.Now()

	rsp, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	fetchTime := time.Now()

	s.checkContentType(rsp)

	body, err := s.collectBody(rsp)
	if err != nil {
		return err
	}

	doc, err := sip008.Parse(body, sip008.VariantOnline)
	if err != nil {
		return &CycleError{Stage: StageParse, URL: s.configURL, Err: err}
	}

	if err := doc.CheckIntegrity(); err != nil {
		return &CycleError{Stage: StageIntegrity, URL: s.configURL, Err: err}
	}

	readTime := time.Now()

	// The pool update is the only mutating stage and runs strictly last,
	// so an expired deadline never leaves a partial update behind.
	if err := ctx.Err(); err != nil {
		return err
	}

	servers := make([]*pool.Server, 0, len(doc.Servers))
	for _, entry := range doc.Servers {
		weight := entry.Weight
		if weight == 0 {
			weight = 1
		}
		servers = append(servers, pool.New(entry.ID, entry.URL(), weight, s.source))
	}

	if err := s.pool.ReplaceBySource(servers, s.source); err != nil {
		return &CycleError{Stage: StagePoolUpdate, URL: s.configURL, Err: err}
	}

	finishTime := time.Now()

	s.logger.Debug("server loader cycle finished",
		slog.String("cycle_id", cycleID),
		slog.String("url", s.configURL),
		slog.Int("servers", len(servers)),
		slog.Duration("fetch_time", fetchTime.Sub(startTime)),
		slog.Duration("read_time", readTime.Sub(fetchTime)),
		slog.Duration("load_time", finishTime.Sub(readTime)),
		slog.Duration("total_time", finishTime.Sub(startTime)))

	s.emitSyncCompleted(finishTime.Sub(startTime), len(servers))

	return nil
}

func (s *Service) emitSyncCompleted(duration time.Duration, serverCount int) {
	if s.collector == nil {
		return
	}

	s.collector.Emit(metrics.MetricEvent{
		Type:        metrics.EventSyncCompleted,
		Timestamp:   time.Now(),
		Source:      string(s.source),
		Duration:    duration,
		ServerCount: serverCount,
	})
}

func (s *Service) emitSyncFailed(duration time.Duration) {
	if s.collector == nil {
		return
	}

	s.collector.Emit(metrics.MetricEvent{
		Type:      metrics.EventSyncFailed,
		Timestamp: time.Now(),
		Source:    string(s.source),
		Duration:  duration,
	})
}
