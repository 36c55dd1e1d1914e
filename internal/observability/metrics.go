package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nutribunda_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FoodScans counts food-scan requests by outcome.
	FoodScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nutribunda_food_scans_total",
		Help: "Total number of food scan requests by outcome",
	}, []string{"status"})

	// Recommendations counts recommendation requests by outcome.
	Recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nutribunda_recommendations_total",
		Help: "Total number of recommendation requests by outcome",
	}, []string{"status"})

	// MealLogsCreated counts meal logs recorded from menus.
	MealLogsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nutribunda_meal_logs_created_total",
		Help: "Total number of meal logs created",
	})

	// ImageUploads counts admin image uploads by outcome.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nutribunda_image_uploads_total",
		Help: "Total number of image uploads by outcome",
	}, []string{"status"})
)

// Metric outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
