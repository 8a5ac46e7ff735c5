package metrics

import (
	"sort"
	"sync"
	"time"
)

type Metrics struct {
	mutex         sync.RWMutex
	requests      map[string]int64
	selections    map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	healthStatus  map[string]bool
	syncs         map[string]*syncStats
	startTime     time.Time
}

type syncStats struct {
	attempts     int64
	failures     int64
	lastSuccess  time.Time
	lastDuration time.Duration
	serverCount  int
}

type Snapshot struct {
	TotalRequests int64                    `json:"total_requests"`
	Uptime        time.Duration            `json:"uptime"`
	Servers       map[string]ServerMetrics `json:"servers"`
	Sources       map[string]SourceMetrics `json:"sources"`
	Algorithm     string                   `json:"algorithm"`
}

type ServerMetrics struct {
	Requests    int64         `json:"requests"`
	Selections  int64         `json:"selections"`
	Healthy     bool          `json:"healthy"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

// SourceMetrics describes the sync history of one online-config source.
type SourceMetrics struct {
	SyncAttempts int64         `json:"sync_attempts"`
	SyncFailures int64         `json:"sync_failures"`
	LastSuccess  time.Time     `json:"last_success"`
	LastDuration time.Duration `json:"last_duration"`
	ServerCount  int           `json:"server_count"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests:      make(map[string]int64),
		selections:    make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		healthStatus:  make(map[string]bool),
		syncs:         make(map[string]*syncStats),
		startTime:     time.Now(),
	}
}

func (m *Metrics) IncrementRequests(server string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests[server]++
}

func (m *Metrics) RecordServerSelection(server string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.selections[server]++
}

func (m *Metrics) RecordResponse(server string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes[server] = append(m.responseTimes[server], duration)

	if len(m.responseTimes[server]) > 1000 {
		m.responseTimes[server] = m.responseTimes[server][1:]
	}

	if m.statusCodes[server] == nil {
		m.statusCodes[server] = make(map[int]int64)
	}
	m.statusCodes[server][statusCode]++
}

func (m *Metrics) UpdateHealthStatus(server string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStatus[server] = healthy
}

// RecordSyncCompleted records a successful fetch cycle for a source.
func (m *Metrics) RecordSyncCompleted(source string, duration time.Duration, serverCount int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stats := m.syncStatsFor(source)
	stats.attempts++
	stats.lastSuccess = time.Now()
	stats.lastDuration = duration
	stats.serverCount = serverCount
}

// RecordSyncFailed records a failed fetch cycle for a source.
func (m *Metrics) RecordSyncFailed(source string, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stats := m.syncStatsFor(source)
	stats.attempts++
	stats.failures++
	stats.lastDuration = duration
}

func (m *Metrics) syncStatsFor(source string) *syncStats {
	stats, ok := m.syncs[source]
	if !ok {
		stats = &syncStats{}
		m.syncs[source] = stats
	}
	return stats
}

func (m *Metrics) Snapshot(algorithm string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:    time.Since(m.startTime),
		Servers:   make(map[string]ServerMetrics),
		Sources:   make(map[string]SourceMetrics),
		Algorithm: algorithm,
	}

	for server, count := range m.requests {
		snap.TotalRequests += count

		sm := ServerMetrics{
			Requests:    count,
			Selections:  m.selections[server],
			Healthy:     m.healthStatus[server],
			StatusCodes: make(map[int]int64, len(m.statusCodes[server])),
		}
		for code, n := range m.statusCodes[server] {
			sm.StatusCodes[code] = n
		}

		if times := m.responseTimes[server]; len(times) > 0 {
			sm.AvgResponse = average(times)
			sm.P50Response = percentile(times, 50)
			sm.P95Response = percentile(times, 95)
			sm.P99Response = percentile(times, 99)
		}

		snap.Servers[server] = sm
	}

	for source, stats := range m.syncs {
		snap.Sources[source] = SourceMetrics{
			SyncAttempts: stats.attempts,
			SyncFailures: stats.failures,
			LastSuccess:  stats.lastSuccess,
			LastDuration: stats.lastDuration,
			ServerCount:  stats.serverCount,
		}
	}

	return snap
}

func average(times []time.Duration) time.Duration {
	var total time.Duration
	for _, t := range times {
		total += t
	}
	return total / time.Duration(len(times))
}

func percentile(times []time.Duration, p int) time.Duration {
	sorted := make([]time.Duration, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := (len(sorted) - 1) * p / 100
	return sorted[index]
}
