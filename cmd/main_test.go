package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/online-balancer/config"
	"github.com/angeloszaimis/online-balancer/internal/metrics"
	"github.com/angeloszaimis/online-balancer/internal/pool"
)

func TestMain(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Main Suite")
}

var _ = Describe("initializePool", func() {
	var (
		log *slog.Logger
		cfg *config.Config
	)

	BeforeEach(func() {
		log = slog.Default()
		cfg = &config.Config{}
	})

	Context("valid upstream URLs", func() {
		It("should initialize a single upstream", func() {
			cfg.Upstreams = []config.UpstreamConfig{{URL: "http://localhost:8080", Weight: 1}}
			p, err := initializePool(cfg, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Len()).To(Equal(1))
			Expect(p.Servers()[0].Source()).To(Equal(pool.SourceStatic))
		})

		It("should initialize multiple upstreams", func() {
			cfg.Upstreams = []config.UpstreamConfig{
				{URL: "http://localhost:8080", Weight: 1},
				{URL: "http://localhost:8081", Weight: 1},
				{URL: "http://localhost:8082", Weight: 1},
			}
			p, err := initializePool(cfg, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Len()).To(Equal(3))
		})

		It("should handle HTTPS upstreams", func() {
			cfg.Upstreams = []config.UpstreamConfig{{URL: "https://api.example.com", Weight: 1}}
			p, err := initializePool(cfg, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Len()).To(Equal(1))
		})
	})

	Context("with an upstreams file", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "pool-test-*")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(tempDir)
		})

		It("should load entries from a local document", func() {
			path := filepath.Join(tempDir, "upstreams.json")
			Expect(os.WriteFile(path, []byte(
				`{"servers":[{"id":"a","server":"10.0.0.1","server_port":8081},{"id":"b","server":"10.0.0.2","server_port":8082}]}`,
			), 0644)).To(Succeed())

			cfg.UpstreamsFile = path
			p, err := initializePool(cfg, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Len()).To(Equal(2))
			Expect(p.BySource(pool.SourceStatic)).To(HaveLen(2))
		})

		It("should fail on a document with duplicate identifiers", func() {
			path := filepath.Join(tempDir, "upstreams.json")
			Expect(os.WriteFile(path, []byte(
				`{"servers":[{"id":"a"},{"id":"a"}]}`,
			), 0644)).To(Succeed())

			cfg.UpstreamsFile = path
			_, err := initializePool(cfg, log)
			Expect(err).To(HaveOccurred())
		})

		It("should fail on a missing file", func() {
			cfg.UpstreamsFile = filepath.Join(tempDir, "does-not-exist.json")
			_, err := initializePool(cfg, log)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("invalid configurations", func() {
		It("should return error when nothing is configured", func() {
			p, err := initializePool(cfg, log)
			Expect(err).To(HaveOccurred())
			Expect(p).To(BeNil())
		})

		It("should allow an empty pool when online configs are set", func() {
			cfg.OnlineConfigs = []config.OnlineConfigSource{
				{Name: "primary", URL: "https://config.example.com/servers.json"},
			}
			p, err := initializePool(cfg, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Len()).To(Equal(0))
		})

		It("should skip invalid URLs but continue with valid ones", func() {
			cfg.Upstreams = []config.UpstreamConfig{
				{URL: "http://localhost:8080", Weight: 1},
				{URL: "://invalid", Weight: 1},
			}
			p, err := initializePool(cfg, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Len()).To(Equal(1))
		})
	})
})

var _ = Describe("startOnlineConfigServices", func() {
	var (
		log       *slog.Logger
		ctx       context.Context
		cancel    context.CancelFunc
		p         *pool.Pool
		collector *metrics.Collector
	)

	BeforeEach(func() {
		log = slog.Default()
		ctx, cancel = context.WithCancel(context.Background())
		p = pool.NewPool()
		collector = metrics.NewCollector(100, log)
	})

	AfterEach(func() {
		cancel()
	})

	It("should build one service per source and fill the pool", func() {
		remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Write([]byte(`{"version":1,"servers":[{"id":"a","server":"10.0.0.1","server_port":8081}]}`))
		}))
		defer remote.Close()

		cfg := &config.Config{
			OnlineConfigs: []config.OnlineConfigSource{
				{Name: "primary", URL: remote.URL, Interval: "1h", Timeout: "5s"},
			},
		}

		Expect(startOnlineConfigServices(ctx, cfg, p, log, collector)).To(Succeed())
		Expect(p.BySource(pool.OnlineSource("primary"))).To(HaveLen(1))
	})

	It("should fail startup when a source is unreachable", func() {
		cfg := &config.Config{
			OnlineConfigs: []config.OnlineConfigSource{
				{Name: "primary", URL: "http://127.0.0.1:1", Interval: "1h", Timeout: "2s"},
			},
		}

		Expect(startOnlineConfigServices(ctx, cfg, p, log, collector)).To(HaveOccurred())
		Expect(p.Len()).To(Equal(0))
	})

	It("should fail startup on a malformed interval", func() {
		cfg := &config.Config{
			OnlineConfigs: []config.OnlineConfigSource{
				{Name: "primary", URL: "http://127.0.0.1:1", Interval: "soon", Timeout: "2s"},
			},
		}

		Expect(startOnlineConfigServices(ctx, cfg, p, log, collector)).To(HaveOccurred())
	})
})

var _ = Describe("createStrategy", func() {
	var log *slog.Logger

	BeforeEach(func() {
		log = slog.Default()
	})

	Context("valid strategies", func() {
		It("should create round-robin strategy", func() {
			strat, err := createStrategy(log, "round-robin")
			Expect(err).NotTo(HaveOccurred())
			Expect(strat).NotTo(BeNil())
		})

		It("should create random strategy", func() {
			strat, err := createStrategy(log, "random")
			Expect(err).NotTo(HaveOccurred())
			Expect(strat).NotTo(BeNil())
		})

		It("should create least-conn strategy", func() {
			strat, err := createStrategy(log, "least-conn")
			Expect(err).NotTo(HaveOccurred())
			Expect(strat).NotTo(BeNil())
		})
	})

	Context("default behavior", func() {
		It("should default to round-robin for unknown strategy", func() {
			strat, err := createStrategy(log, "unknown-strategy")
			Expect(err).NotTo(HaveOccurred())
			Expect(strat).NotTo(BeNil())
		})

		It("should default to round-robin for empty strategy", func() {
			strat, err := createStrategy(log, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(strat).NotTo(BeNil())
		})
	})
})
