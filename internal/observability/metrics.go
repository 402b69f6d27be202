package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "interview_gateway_active_sessions",
		Help: "Number of active interview sessions",
	})

	totalSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_gateway_sessions_total",
		Help: "Total number of interview sessions started",
	}, []string{"mode"}) // mode: "copilot" or "practice"

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interview_gateway_session_duration_seconds",
		Help:    "Duration of interview sessions in seconds",
		Buckets: []float64{30, 60, 300, 600, 1200, 1800, 3600},
	})

	// Trigger metrics
	triggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_gateway_triggers_total",
		Help: "Total number of suggestion triggers",
	}, []string{"source", "outcome"}) // source: "auto"/"manual", outcome: "fired"/"cache_hit"/"cooldown"/"noop"

	// Generation metrics
	generationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_gateway_generation_requests_total",
		Help: "Total number of generation calls to the LLM backend",
	}, []string{"kind", "status"}) // kind: "copilot"/"practice"/"example"/"summary"/"briefing"

	generationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interview_gateway_generation_latency_seconds",
		Help:    "Latency from generation request to stream completion in seconds",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	// Cooldown metrics
	cooldownsEntered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_gateway_cooldowns_total",
		Help: "Total number of rate-limit cooldowns entered",
	})

	// Cache metrics
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_gateway_answer_cache_lookups_total",
		Help: "Total question cache lookups",
	}, []string{"result"}) // result: "hit" or "miss"

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Audio metrics
	audioBytesForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_gateway_audio_bytes_total",
		Help: "Total audio bytes forwarded to the live backend",
	})

	audioFramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_gateway_audio_frames_dropped_total",
		Help: "Audio frames dropped before the live session was ready or while saturated",
	})
)

// Metrics tracks metrics for a single interview session
type Metrics struct {
	sessionID           string
	startTime           time.Time
	generationStartTime time.Time
	mu                  sync.Mutex
}

// NewSessionMetrics creates a new metrics tracker for a session
func NewSessionMetrics(sessionID, mode string) *Metrics {
	activeSessions.Inc()
	totalSessions.WithLabelValues(mode).Inc()
	return &Metrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionEnd records the end of a session
func (m *Metrics) RecordSessionEnd() {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordTrigger records a suggestion trigger and its outcome
func (m *Metrics) RecordTrigger(source, outcome string) {
	triggersTotal.WithLabelValues(source, outcome).Inc()
}

// RecordGenerationStart records the start of a generation call
func (m *Metrics) RecordGenerationStart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generationStartTime = time.Now()
}

// RecordGenerationEnd records the completion of a generation call
func (m *Metrics) RecordGenerationEnd(kind string, success bool) {
	m.mu.Lock()
	start := m.generationStartTime
	m.mu.Unlock()

	status := "success"
	if !success {
		status = "error"
	}
	generationRequests.WithLabelValues(kind, status).Inc()
	if !start.IsZero() {
		generationLatency.Observe(time.Since(start).Seconds())
	}
}

// RecordCooldown records entry into a rate-limit cooldown
func (m *Metrics) RecordCooldown() {
	cooldownsEntered.Inc()
}

// RecordCacheLookup records a question cache lookup result
func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
	} else {
		cacheLookups.WithLabelValues("miss").Inc()
	}
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records audio bytes forwarded by a relay connection.
// Relay connections are not sessions, so this has no per-session tracker.
func RecordAudioBytes(n int64) {
	audioBytesForwarded.Add(float64(n))
}

// RecordAudioFrameDropped records a frame dropped by a relay connection.
func RecordAudioFrameDropped() {
	audioFramesDropped.Inc()
}

// RecordComponentError records an error outside a session context.
func RecordComponentError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}
