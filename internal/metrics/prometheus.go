package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ParseDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "minutes_parse_duration_seconds",
			Help:    "Full pipeline duration per file in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
	)

	FilesProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minutes_files_processed_total",
			Help: "Total minutes files processed successfully",
		},
	)

	ParseFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minutes_parse_failures_total",
			Help: "Total files that failed extraction or persistence",
		},
	)

	SessionsPerFile = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "minutes_sessions_per_file",
			Help:    "Question sessions detected per file",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	CardsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minutes_cards_generated_total",
			Help: "Total question cards written by the pipeline",
		},
	)

	ImportedCards = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minutes_imported_cards_total",
			Help: "Total cards created from theme CSV imports",
		},
	)

	CardViews = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minutes_card_views_total",
			Help: "Total card detail views recorded",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minutes_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minutes_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minutes_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"route"},
	)
)

func Init() {
	prometheus.MustRegister(ParseDuration)
	prometheus.MustRegister(FilesProcessed)
	prometheus.MustRegister(ParseFailures)
	prometheus.MustRegister(SessionsPerFile)
	prometheus.MustRegister(CardsGenerated)
	prometheus.MustRegister(ImportedCards)
	prometheus.MustRegister(CardViews)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(RequestDuration)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
