package handler

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angeloszaimis/online-balancer/internal/balancer"
	"github.com/angeloszaimis/online-balancer/internal/circuitbreaker"
	"github.com/angeloszaimis/online-balancer/internal/metrics"
	"github.com/angeloszaimis/online-balancer/internal/pool"
)

type ProxyHandler struct {
	logger           *slog.Logger
	balancer         *balancer.Balancer
	pool             *pool.Pool
	breakers         *circuitbreaker.Registry
	metricsCollector *metrics.Collector
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func NewProxyHandler(
	logger *slog.Logger,
	b *balancer.Balancer,
	p *pool.Pool,
	breakers *circuitbreaker.Registry,
	collector *metrics.Collector,
) *ProxyHandler {
	return &ProxyHandler{
		logger:           logger,
		balancer:         b,
		pool:             p,
		breakers:         breakers,
		metricsCollector: collector,
	}
}

func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientIP := extractClientIP(r)

	h.logger.Info("Received request",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("proto", r.Proto),
		slog.String("host", r.Host),
		slog.String("user_agent", r.UserAgent()))

	nextServer, err := h.balancer.GetAndReserveServer(h.allowedServers())
	if err != nil {
		h.logger.Warn("No healthy servers available", slog.String("client", clientIP))
		http.Error(w, "No healthy server available", http.StatusServiceUnavailable)
		return
	}

	serverURL := nextServer.URL().String()

	h.emitEvent(metrics.MetricEvent{
		Type:      metrics.EventRequestReceived,
		Timestamp: time.Now(),
		Server:    serverURL,
	})

	h.emitEvent(metrics.MetricEvent{
		Type:      metrics.EventServerSelected,
		Timestamp: time.Now(),
		Server:    serverURL,
	})

	defer nextServer.DecrementConn()
	start := time.Now()

	h.logger.Info("Forwarding to upstream",
		slog.String("client", clientIP),
		slog.String("server", serverURL))

	w.Header().Set("X-Upstream-Server", serverURL)

	wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
	nextServer.ReverseProxy().ServeHTTP(wrapped, r)

	duration := time.Since(start)
	h.emitEvent(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Timestamp:  time.Now(),
		Server:     serverURL,
		Duration:   duration,
		StatusCode: wrapped.statusCode,
	})
	nextServer.RecordResponse(duration)

	if h.breakers != nil {
		breaker := h.breakers.GetBreaker(serverURL)
		if wrapped.statusCode >= http.StatusInternalServerError {
			breaker.RecordFailure()
		} else {
			breaker.RecordSuccess()
		}
	}
}

// allowedServers filters the pool down to servers whose breaker currently
// admits traffic. Health and routability filtering stays in the balancer.
func (h *ProxyHandler) allowedServers() []*pool.Server {
	servers := h.pool.Servers()
	if h.breakers == nil {
		return servers
	}

	allowed := make([]*pool.Server, 0, len(servers))
	for _, s := range servers {
		if !s.Routable() {
			continue
		}
		if h.breakers.GetBreaker(s.URL().String()).Allow() {
			allowed = append(allowed, s)
		}
	}
	return allowed
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}

func (h *ProxyHandler) emitEvent(event metrics.MetricEvent) {
	if h.metricsCollector == nil {
		return
	}

	h.metricsCollector.Emit(event)
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
