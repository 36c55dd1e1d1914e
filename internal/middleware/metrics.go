package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts Redis command failures observed by the cache client hook.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nutribunda_redis_errors_total",
	Help: "Total number of Redis command errors by command name",
}, []string{"command"})

// InitMetrics creates the Prometheus middleware that records HTTP request
// counts and latencies under the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware adapts the Prometheus collector into a Fiber handler.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
