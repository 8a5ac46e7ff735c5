package metrics_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/online-balancer/internal/metrics"
)

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log := slog.New(slog.NewTextHandler(os.Stdout, nil))
		collector = metrics.NewCollector(100, log)
		ctx, cancel = context.WithCancel(context.Background())
		collector.Start(ctx)
	})

	AfterEach(func() {
		cancel()
	})

	It("should process request events", func() {
		collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventRequestReceived,
			Timestamp: time.Now(),
			Server:    "http://localhost:8081",
		})

		Eventually(func() int64 {
			return collector.Snapshot("round-robin").TotalRequests
		}, "1s", "20ms").Should(Equal(int64(1)))
	})

	It("should process sync events", func() {
		collector.Emit(metrics.MetricEvent{
			Type:        metrics.EventSyncCompleted,
			Timestamp:   time.Now(),
			Source:      "online:primary",
			Duration:    50 * time.Millisecond,
			ServerCount: 3,
		})
		collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventSyncFailed,
			Timestamp: time.Now(),
			Source:    "online:primary",
			Duration:  time.Second,
		})

		Eventually(func() int64 {
			return collector.Snapshot("round-robin").Sources["online:primary"].SyncAttempts
		}, "1s", "20ms").Should(Equal(int64(2)))

		snap := collector.Snapshot("round-robin")
		Expect(snap.Sources["online:primary"].SyncFailures).To(Equal(int64(1)))
		Expect(snap.Sources["online:primary"].ServerCount).To(Equal(3))
	})

	It("should not block the caller when the buffer is full", func() {
		small := metrics.NewCollector(1, slog.Default())
		// Not started: the buffer never drains.
		done := make(chan struct{})
		go func() {
			for i := 0; i < 100; i++ {
				small.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived})
			}
			close(done)
		}()

		Eventually(done, "1s").Should(BeClosed())
	})
})
