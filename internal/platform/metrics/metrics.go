package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Promotion outcomes.
const (
	PromotionCreated = "created"
	PromotionSkipped = "skipped"
)

// Sign-in outcomes.
const (
	SignInSuccess = "success"
	SignInInvalid = "invalid_credentials"
	SignInDenied  = "access_denied"
)

// Metrics holds all Prometheus metrics for the application.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	Submissions     *prometheus.CounterVec
	Promotions      *prometheus.CounterVec
	Deletions       *prometheus.CounterVec
	SignIns         *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics with reg. Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safenest_submissions_total",
			Help: "Public form submissions accepted, by form",
		}, []string{"form"}),
		Promotions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safenest_promotions_total",
			Help: "Approved onboarding requests processed by the promotion rule, by outcome",
		}, []string{"outcome"}),
		Deletions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safenest_deletions_total",
			Help: "Records hard-deleted by admins, by kind",
		}, []string{"kind"}),
		SignIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safenest_admin_sign_ins_total",
			Help: "Admin sign-in attempts, by outcome",
		}, []string{"outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "safenest_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}

// IncrementSubmission records an accepted public submission.
func (m *Metrics) IncrementSubmission(form string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(form).Inc()
}

// IncrementPromotion records a promotion outcome (PromotionCreated or PromotionSkipped).
func (m *Metrics) IncrementPromotion(outcome string) {
	if m == nil {
		return
	}
	m.Promotions.WithLabelValues(outcome).Inc()
}

// IncrementDeletion records a hard delete.
func (m *Metrics) IncrementDeletion(kind string) {
	if m == nil {
		return
	}
	m.Deletions.WithLabelValues(kind).Inc()
}

// IncrementSignIn records a sign-in outcome.
func (m *Metrics) IncrementSignIn(outcome string) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(outcome).Inc()
}

// Middleware observes request latency labelled by the matched chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
