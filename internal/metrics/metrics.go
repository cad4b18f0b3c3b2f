package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	AccountsRegistered  prometheus.Counter
	LoginAttempts       *prometheus.CounterVec
	TransactionsCreated prometheus.Counter
	BudgetsUpserted     *prometheus.CounterVec
	BudgetsDeleted      prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
}

// New creates the metrics and registers them with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		AccountsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "finance_accounts_registered_total",
			Help: "Total number of accounts registered",
		}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		TransactionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "finance_transactions_created_total",
			Help: "Total number of transactions recorded",
		}),
		BudgetsUpserted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_budgets_upserted_total",
			Help: "Budget upserts by result (added or updated)",
		}, []string{"result"}),
		BudgetsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "finance_budgets_deleted_total",
			Help: "Total number of budgets deleted",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finance_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncAccountsRegistered() {
	if m == nil {
		return
	}
	m.AccountsRegistered.Inc()
}

func (m *Metrics) IncLoginAttempt(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) IncTransactionsCreated() {
	if m == nil {
		return
	}
	m.TransactionsCreated.Inc()
}

func (m *Metrics) IncBudgetsUpserted(created bool) {
	if m == nil {
		return
	}
	result := "updated"
	if created {
		result = "added"
	}
	m.BudgetsUpserted.WithLabelValues(result).Inc()
}

func (m *Metrics) IncBudgetsDeleted() {
	if m == nil {
		return
	}
	m.BudgetsDeleted.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware observes request latency labelled by the matched chi route
// pattern, so ids in paths do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
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
