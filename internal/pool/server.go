package pool

import (
	"net/http/httputil"
	"net/url"
	"sync"
	"time"
)

// Source identifies the subsystem that produced a pool entry. Replace
// operations are scoped by source so one producer never clobbers
// another's entries.
type Source string

// SourceStatic tags entries loaded from the local configuration.
const SourceStatic Source = "static"

// OnlineSource returns the tag owned by the online-config service with
// the given name.
func OnlineSource(name string) Source {
	return Source("online:" + name)
}

// Server represents an upstream server with health status, connection
// tracking, and response time monitoring. Servers without an address
// (possible for online-config entries) are kept in the pool but start
// unhealthy and are never routable.
type Server struct {
	id                string
	url               *url.URL
	source            Source
	weight            int
	proxy             *httputil.ReverseProxy
	mutex             sync.Mutex
	isHealthy         bool
	activeConnections int
	ewmaResponseTime  time.Duration
	hasEWMA           bool
}

const ewmaAlpha = 0.2

// New creates a new Server. A server with a non-nil URL starts healthy;
// an address-less server starts unhealthy and stays unroutable.
func New(id string, u *url.URL, weight int, source Source) *Server {
	s := &Server{
		id:     id,
		url:    u,
		source: source,
		weight: weight,
	}

	if u != nil {
		s.proxy = httputil.NewSingleHostReverseProxy(u)
		s.isHealthy = true
	}

	return s
}

// ID returns the entry identifier, which may be empty for static entries.
func (s *Server) ID() string {
	return s.id
}

// URL returns the upstream server URL, nil for address-less entries.
func (s *Server) URL() *url.URL {
	return s.url
}

// Source returns the tag of the subsystem that produced this entry.
func (s *Server) Source() Source {
	return s.source
}

// Weight returns the configured weight.
func (s *Server) Weight() int {
	return s.weight
}

// Routable returns true if the server has an address to forward to.
func (s *Server) Routable() bool {
	return s.url != nil
}

// ReverseProxy returns the HTTP reverse proxy for this server, nil for
// address-less entries.
func (s *Server) ReverseProxy() *httputil.ReverseProxy {
	return s.proxy
}

// IncrementConn increments the active connection count.
func (s *Server) IncrementConn() {
	s.mutex.Lock()
	s.activeConnections++
	s.mutex.Unlock()
}

// DecrementConn decrements the active connection count.
func (s *Server) DecrementConn() {
	s.mutex.Lock()
	if s.activeConnections > 0 {
		s.activeConnections--
	}
	s.mutex.Unlock()
}

// ActiveConnections returns the current number of active connections.
func (s *Server) ActiveConnections() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.activeConnections
}

// IsHealthy returns true if the server is currently healthy.
func (s *Server) IsHealthy() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.isHealthy
}

// SetHealthy updates the server's health status.
// Returns true if the status changed, false if it was already in that state.
func (s *Server) SetHealthy(healthy bool) (changed bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if healthy && s.url == nil {
		return false
	}

	if s.isHealthy == healthy {
		return false
	}

	s.isHealthy = healthy
	return true
}

// RecordResponse updates the exponentially weighted moving average (EWMA)
// response time using the latest request duration.
func (s *Server) RecordResponse(duration time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.hasEWMA {
		s.ewmaResponseTime = duration
		s.hasEWMA = true
		return
	}
	//ewma = (1 - α) * ewma + α * latest
	s.ewmaResponseTime = time.Duration((1-ewmaAlpha)*float64(s.ewmaResponseTime) + ewmaAlpha*float64(duration))
}

// EWMATime returns the exponentially weighted moving average response time.
// Returns 0 if no responses have been recorded yet.
func (s *Server) EWMATime() time.Duration {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.hasEWMA {
		return 0
	}

	return s.ewmaResponseTime
}
