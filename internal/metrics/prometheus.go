package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReviewRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facultyinsight_review_requests_total",
			Help: "Evaluation requests by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	ReviewDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "facultyinsight_review_duration_seconds",
			Help:    "Evaluation latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"mode"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facultyinsight_llm_tokens_used_total",
			Help: "LLM tokens consumed",
		},
		[]string{"type"},
	)

	StreamChunks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "facultyinsight_stream_chunks_total",
			Help: "Token fragments relayed to clients",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facultyinsight_cache_hits_total",
			Help: "Cache hits by type",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facultyinsight_cache_misses_total",
			Help: "Cache misses by type",
		},
		[]string{"cache_type"},
	)

	ReviewsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "facultyinsight_reviews_submitted_total",
			Help: "Student reviews appended to the store",
		},
	)

	WaitlistSignups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facultyinsight_waitlist_signups_total",
			Help: "Waitlist signups by list",
		},
		[]string{"list"},
	)

	FeedbackEmails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facultyinsight_feedback_emails_total",
			Help: "Feedback emails by outcome",
		},
		[]string{"status"},
	)

	PassagesIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "facultyinsight_passages_ingested_total",
			Help: "Review passages added to the vector index",
		},
	)
)

func Init() {
	prometheus.MustRegister(ReviewRequests)
	prometheus.MustRegister(ReviewDuration)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(StreamChunks)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(ReviewsSubmitted)
	prometheus.MustRegister(WaitlistSignups)
	prometheus.MustRegister(FeedbackEmails)
	prometheus.MustRegister(PassagesIngested)
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
