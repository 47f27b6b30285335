package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider, schema and HTTP status class",
		},
		[]string{"provider", "schema", "status"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"provider", "schema"},
	)
	AIBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ai_circuit_breaker_state",
			Help: "Completion provider circuit state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"provider"},
	)
	AIPromptTokens = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_prompt_tokens",
			Help:    "Estimated prompt size in tokens per completion request",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		},
		[]string{"schema"},
	)

	PipelineInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_invocations_total",
			Help: "Pipeline invocations by schema and outcome",
		},
		[]string{"schema", "outcome"},
	)
	PipelineRepairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_repairs_total",
			Help: "JSON repair steps that changed a completion, by schema and step",
		},
		[]string{"schema", "step"},
	)
	PipelineFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_fallbacks_total",
			Help: "Placeholder results returned instead of an error",
		},
		[]string{"schema"},
	)
	QuizOverridesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_quiz_overrides_total",
			Help: "Analyses whose quizPerformance was replaced by the ground-truth score",
		},
	)
	AnalysisScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_overall_score",
			Help:    "Distribution of the overall compatibility score (0-100)",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

var initOnce sync.Once

// InitMetrics registers all collectors with the default registry. Safe to call
// more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AIRequestsTotal,
			AIRequestDuration,
			AIBreakerState,
			AIPromptTokens,
			PipelineInvocationsTotal,
			PipelineRepairsTotal,
			PipelineFallbacksTotal,
			QuizOverridesTotal,
			AnalysisScoreHistogram,
		)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveAIRequest records one provider call. status is 0 for transport failures.
func ObserveAIRequest(provider, schema string, status int, d time.Duration) {
	class := "transport_error"
	if status > 0 {
		class = http.StatusText(status)
		if class == "" {
			class = "unknown"
		}
	}
	AIRequestsTotal.WithLabelValues(provider, schema, class).Inc()
	AIRequestDuration.WithLabelValues(provider, schema).Observe(d.Seconds())
}

// ObservePromptTokens records the estimated prompt size for a request.
func ObservePromptTokens(schema string, tokens int) {
	AIPromptTokens.WithLabelValues(schema).Observe(float64(tokens))
}

// RecordPipelineOutcome counts one finished invocation.
func RecordPipelineOutcome(schema, outcome string) {
	PipelineInvocationsTotal.WithLabelValues(schema, outcome).Inc()
}

// RecordRepairs counts the repair steps that changed a completion.
func RecordRepairs(schema string, steps []string) {
	for _, s := range steps {
		PipelineRepairsTotal.WithLabelValues(schema, s).Inc()
	}
}

// RecordFallback counts a placeholder result.
func RecordFallback(schema string) {
	PipelineFallbacksTotal.WithLabelValues(schema).Inc()
}

// RecordQuizOverride counts a ground-truth quiz override.
func RecordQuizOverride() { QuizOverridesTotal.Inc() }

// ObserveAnalysisScore records the overall score of a validated analysis.
func ObserveAnalysisScore(score int) {
	if score >= 0 && score <= 100 {
		AnalysisScoreHistogram.Observe(float64(score))
	}
}

// SetBreakerState publishes the circuit state of a provider.
func SetBreakerState(provider string, state int) {
	AIBreakerState.WithLabelValues(provider).Set(float64(state))
}
