package telemetry

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// PromotionsApplied counts promotions that passed their conditions and
	// contributed to a quote, by discount type.
	PromotionsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promotions_applied_total",
		Help: "Promotions applied to carts, by discount type",
	}, []string{"type"})

	// CouponValidations counts coupon checks by outcome (accepted/rejected).
	CouponValidations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_validations_total",
		Help: "Coupon validation outcomes",
	}, []string{"outcome"})

	// FreeGiftsEmitted counts free-gift lines produced by FREE_* actions.
	FreeGiftsEmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "free_gifts_emitted_total",
		Help: "Free gift lines emitted by the engine",
	})
)

func Init() {
	prometheus.MustRegister(httpReqs, httpDur, PromotionsApplied, CouponValidations, FreeGiftsEmitted)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// get route pattern if available
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
