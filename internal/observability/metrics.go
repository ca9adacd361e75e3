package observability

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "chronorec"

// Drop reasons reported through RecordCandidateDropped.
const (
	DropOutOfRange = "out_of_range"
	DropParseError = "parse_error"
	DropPanic      = "panic"
	DropAmbiguity  = "ambiguity_filter"
)

// Metrics records operational telemetry of the recognition pipeline.
type Metrics interface {
	// RecordParse records one top-level parse call.
	RecordParse(culture string, duration time.Duration, results int, err error)
	// RecordCacheAccess records a results cache hit or miss.
	RecordCacheAccess(hit bool)
	// RecordRegexTimeout records a pattern whose match budget was exhausted.
	RecordRegexTimeout(pattern string)
	// RecordCandidateDropped records a candidate removed during parsing.
	RecordCandidateDropped(reason string)
}

var defaultLatencyBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 1000}

type prometheusMetrics struct {
	parseTotal      *prometheus.CounterVec
	parseDuration   *prometheus.HistogramVec
	resultsTotal    *prometheus.CounterVec
	cacheAccess     *prometheus.CounterVec
	regexTimeouts   *prometheus.CounterVec
	candidatesDrops *prometheus.CounterVec
}

// NewPrometheusMetrics creates a Prometheus-backed recorder and registers
// its collectors with registerer (the default registerer when nil).
func NewPrometheusMetrics(registerer prometheus.Registerer) (Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &prometheusMetrics{
		parseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "parse_total",
			Help:      "Total number of parse calls.",
		}, []string{"culture", "status"}),
		parseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "parse_duration_milliseconds",
			Help:      "Histogram of parse latency in milliseconds.",
			Buckets:   defaultLatencyBuckets,
		}, []string{"culture"}),
		resultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "results_total",
			Help:      "Total number of recognized results.",
		}, []string{"culture"}),
		cacheAccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_access_total",
			Help:      "Total number of results cache accesses.",
		}, []string{"result"}),
		regexTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "regex_timeout_total",
			Help:      "Total number of pattern evaluations that exceeded their match budget.",
		}, []string{"pattern"}),
		candidatesDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "candidates_dropped_total",
			Help:      "Total number of candidates dropped during parsing.",
		}, []string{"reason"}),
	}

	collectors := []prometheus.Collector{
		m.parseTotal, m.parseDuration, m.resultsTotal,
		m.cacheAccess, m.regexTimeouts, m.candidatesDrops,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *prometheusMetrics) RecordParse(culture string, d time.Duration, results int, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.parseTotal.WithLabelValues(culture, status).Inc()
	m.parseDuration.WithLabelValues(culture).Observe(float64(d.Microseconds()) / 1000)
	m.resultsTotal.WithLabelValues(culture).Add(float64(results))
}

func (m *prometheusMetrics) RecordCacheAccess(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheAccess.WithLabelValues(result).Inc()
}

func (m *prometheusMetrics) RecordRegexTimeout(pattern string) {
	m.regexTimeouts.WithLabelValues(pattern).Inc()
}

func (m *prometheusMetrics) RecordCandidateDropped(reason string) {
	m.candidatesDrops.WithLabelValues(reason).Inc()
}

// InMemoryMetrics keeps counters in process, for tests and the stats endpoint.
type InMemoryMetrics struct {
	mu sync.Mutex

	parseTotal    atomic.Int64
	parseFailed   atomic.Int64
	resultsTotal  atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	regexTimeouts atomic.Int64

	cultures map[string]*CultureMetrics
	dropped  map[string]int64
}

// CultureMetrics represents metrics for a specific culture.
type CultureMetrics struct {
	parseCount    atomic.Int64
	totalDuration atomic.Int64 // microseconds
}

// NewInMemoryMetrics creates an in-process recorder.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		cultures: make(map[string]*CultureMetrics),
		dropped:  make(map[string]int64),
	}
}

func (m *InMemoryMetrics) RecordParse(culture string, d time.Duration, results int, err error) {
	m.parseTotal.Add(1)
	if err != nil {
		m.parseFailed.Add(1)
	}
	m.resultsTotal.Add(int64(results))
	cm := m.getCultureMetrics(culture)
	cm.parseCount.Add(1)
	cm.totalDuration.Add(d.Microseconds())
}

func (m *InMemoryMetrics) RecordCacheAccess(hit bool) {
	if hit {
		m.cacheHits.Add(1)
		return
	}
	m.cacheMisses.Add(1)
}

func (m *InMemoryMetrics) RecordRegexTimeout(string) {
	m.regexTimeouts.Add(1)
}

func (m *InMemoryMetrics) RecordCandidateDropped(reason string) {
	m.mu.Lock()
	m.dropped[reason]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) getCultureMetrics(culture string) *CultureMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cultures[culture]; !ok {
		m.cultures[culture] = &CultureMetrics{}
	}
	return m.cultures[culture]
}

// Snapshot returns a point-in-time snapshot of current metrics.
func (m *InMemoryMetrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	cultures := make(map[string]*CultureSnapshot, len(m.cultures))
	for culture, cm := range m.cultures {
		count := cm.parseCount.Load()
		var avg int64
		if count > 0 {
			avg = cm.totalDuration.Load() / count
		}
		cultures[culture] = &CultureSnapshot{ParseCount: count, AverageDurationUs: avg}
	}
	dropped := make(map[string]int64, len(m.dropped))
	for k, v := range m.dropped {
		dropped[k] = v
	}

	return &MetricsSnapshot{
		ParseTotal:    m.parseTotal.Load(),
		ParseFailed:   m.parseFailed.Load(),
		ResultsTotal:  m.resultsTotal.Load(),
		CacheHits:     m.cacheHits.Load(),
		CacheMisses:   m.cacheMisses.Load(),
		RegexTimeouts: m.regexTimeouts.Load(),
		Dropped:       dropped,
		Cultures:      cultures,
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	ParseTotal    int64                       `json:"parseTotal"`
	ParseFailed   int64                       `json:"parseFailed"`
	ResultsTotal  int64                       `json:"resultsTotal"`
	CacheHits     int64                       `json:"cacheHits"`
	CacheMisses   int64                       `json:"cacheMisses"`
	RegexTimeouts int64                       `json:"regexTimeouts"`
	Dropped       map[string]int64            `json:"dropped"`
	Cultures      map[string]*CultureSnapshot `json:"cultures"`
}

// CultureSnapshot represents metrics for a specific culture.
type CultureSnapshot struct {
	ParseCount        int64 `json:"parseCount"`
	AverageDurationUs int64 `json:"averageDurationUs"`
}

// CacheHitRate returns the hit rate as a percentage (0-100).
func (s *MetricsSnapshot) CacheHitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total) * 100.0
}

type noopMetrics struct{}

// NewNoopMetrics returns a recorder that discards everything.
func NewNoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordParse(string, time.Duration, int, error) {}
func (noopMetrics) RecordCacheAccess(bool)                       {}
func (noopMetrics) RecordRegexTimeout(string)                    {}
func (noopMetrics) RecordCandidateDropped(string)                {}

// Fanout forwards every record to all recorders.
type Fanout []Metrics

func (f Fanout) RecordParse(culture string, d time.Duration, results int, err error) {
	for _, m := range f {
		m.RecordParse(culture, d, results, err)
	}
}

func (f Fanout) RecordCacheAccess(hit bool) {
	for _, m := range f {
		m.RecordCacheAccess(hit)
	}
}

func (f Fanout) RecordRegexTimeout(pattern string) {
	for _, m := range f {
		m.RecordRegexTimeout(pattern)
	}
}

func (f Fanout) RecordCandidateDropped(reason string) {
	for _, m := range f {
		m.RecordCandidateDropped(reason)
	}
}
