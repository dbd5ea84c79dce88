package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "barber_booking"

// Lock acquisition outcomes.
const (
	LockAcquired = "acquired"
	LockConflict = "conflict"
	LockInvalid  = "invalid"
)

// Metrics groups the service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	lockAttempts *prometheus.CounterVec
	lockReleases prometheus.Counter
	locksExpired prometheus.Counter
	appointments *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		lockAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_attempts_total",
			Help:      "Lock acquisitions by outcome.",
		}, []string{"outcome"}),
		lockReleases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_releases_total",
			Help:      "Locks released explicitly.",
		}),
		locksExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locks_expired_total",
			Help:      "Locks deactivated by the sweeper after expiry.",
		}),
		appointments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_total",
			Help:      "Appointment transitions by resulting status.",
		}, []string{"status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_cache_lookups_total",
			Help:      "Availability cache lookups by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.lockAttempts,
		m.lockReleases,
		m.locksExpired,
		m.appointments,
		m.cacheLookups,
	)

	return m
}

func (m *Metrics) LockAttempt(outcome string) {
	if m == nil {
		return
	}
	m.lockAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LockReleased() {
	if m == nil {
		return
	}
	m.lockReleases.Inc()
}

func (m *Metrics) LocksExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.locksExpired.Add(float64(n))
}

func (m *Metrics) Appointment(status string) {
	if m == nil {
		return
	}
	m.appointments.WithLabelValues(status).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Middleware records every request under its route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		started := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(started).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
