package observability

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects in-process request and review metrics.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64

	routes map[string]*RouteMetrics

	// reviews counts recorded reviews by quality 0..5.
	reviews [6]atomic.Int64

	// samples is a ring of the most recent request latencies.
	samples    []sample
	next       int
	maxSamples int
}

type sample struct {
	at       time.Time
	duration time.Duration
	failed   bool
}

// RouteMetrics represents metrics for one route.
type RouteMetrics struct {
	requestCount  atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector keeping the last maxSamples latencies.
func NewMetrics(maxSamples int) *Metrics {
	if maxSamples <= 0 {
		maxSamples = 1000
	}
	return &Metrics{
		routes:     make(map[string]*RouteMetrics),
		samples:    make([]sample, 0, maxSamples),
		maxSamples: maxSamples,
	}
}

var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the global metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records a finished request.
func (m *Metrics) RecordRequest(route string, duration time.Duration, failed bool) {
	m.requestTotal.Add(1)
	rm := m.route(route)
	rm.requestCount.Add(1)
	rm.totalDuration.Add(duration.Milliseconds())
	if failed {
		m.requestFailed.Add(1)
		rm.errorCount.Add(1)
	}

	m.mu.Lock()
	s := sample{at: time.Now(), duration: duration, failed: failed}
	if len(m.samples) < m.maxSamples {
		m.samples = append(m.samples, s)
	} else {
		m.samples[m.next] = s
	}
	m.next = (m.next + 1) % m.maxSamples
	m.mu.Unlock()
}

// RecordReview counts a review of the given quality. Out of range qualities are ignored.
func (m *Metrics) RecordReview(quality int) {
	if quality >= 0 && quality < len(m.reviews) {
		m.reviews[quality].Add(1)
	}
}

func (m *Metrics) route(route string) *RouteMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	rm, ok := m.routes[route]
	if !ok {
		rm = &RouteMetrics{}
		m.routes[route] = rm
	}
	return rm
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	for i := range m.reviews {
		m.reviews[i].Store(0)
	}

	m.mu.Lock()
	m.routes = make(map[string]*RouteMetrics)
	m.samples = make([]sample, 0, m.maxSamples)
	m.next = 0
	m.mu.Unlock()
}

// Overview summarizes the requests sampled since the given time.
type Overview struct {
	TotalRequests    int64            `json:"total_requests"`
	ErrorCount       int64            `json:"error_count"`
	SuccessRate      float64          `json:"success_rate"`
	AvgLatencyMs     int64            `json:"avg_latency_ms"`
	P50LatencyMs     int64            `json:"p50_latency_ms"`
	P95LatencyMs     int64            `json:"p95_latency_ms"`
	P99LatencyMs     int64            `json:"p99_latency_ms"`
	ReviewsByQuality map[int]int64    `json:"reviews_by_quality"`
	Routes           map[string]int64 `json:"routes"`
}

// Overview computes latency percentiles over the retained samples newer than since. Review and
// route counts are totals since start.
func (m *Metrics) Overview(since time.Time) *Overview {
	m.mu.Lock()
	durations := make([]time.Duration, 0, len(m.samples))
	var failed int64
	for _, s := range m.samples {
		if s.at.Before(since) {
			continue
		}
		durations = append(durations, s.duration)
		if s.failed {
			failed++
		}
	}
	routes := make(map[string]int64, len(m.routes))
	for name, rm := range m.routes {
		routes[name] = rm.requestCount.Load()
	}
	m.mu.Unlock()

	o := &Overview{
		TotalRequests:    int64(len(durations)),
		ErrorCount:       failed,
		SuccessRate:      100,
		ReviewsByQuality: make(map[int]int64, len(m.reviews)),
		Routes:           routes,
	}
	for q := range m.reviews {
		o.ReviewsByQuality[q] = m.reviews[q].Load()
	}
	if len(durations) == 0 {
		return o
	}

	slices.Sort(durations)
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	o.SuccessRate = float64(o.TotalRequests-failed) / float64(o.TotalRequests) * 100
	o.AvgLatencyMs = (total / time.Duration(len(durations))).Milliseconds()
	o.P50LatencyMs = percentile(durations, 50).Milliseconds()
	o.P95LatencyMs = percentile(durations, 95).Milliseconds()
	o.P99LatencyMs = percentile(durations, 99).Milliseconds()
	return o
}

// percentile returns the nearest-rank percentile of sorted durations.
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	return sorted[max(rank, 1)-1]
}

// GetRequestTotal returns the total number of requests.
func (m *Metrics) GetRequestTotal() int64 {
	return m.requestTotal.Load()
}

// GetRequestFailed returns the total number of failed requests.
func (m *Metrics) GetRequestFailed() int64 {
	return m.requestFailed.Load()
}
