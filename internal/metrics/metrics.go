package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quillforge_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quillforge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quillforge_generations_total",
			Help: "Total number of article generation attempts.",
		},
		[]string{"provider", "status"},
	)

	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quillforge_generation_duration_seconds",
			Help:    "End-to-end article generation duration in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
		[]string{"provider"},
	)

	WordsGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quillforge_words_generated_total",
			Help: "Total number of words across successfully generated articles.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		GenerationsTotal,
		GenerationDuration,
		WordsGeneratedTotal,
	)
}
