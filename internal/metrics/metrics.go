package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "loan_engine"

// Payment outcomes recorded by PaymentsTotal.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	LoansCreated        prometheus.Counter
	PaymentsTotal       *prometheus.CounterVec
	InstallmentsPaid    prometheus.Counter
	Rejections          *prometheus.CounterVec
	OverdueInstallments prometheus.Gauge
	RequestDuration     *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LoansCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loans_created_total",
			Help:      "Number of loans created.",
		}),
		PaymentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Number of pay-loan calls by outcome.",
		}, []string{"outcome"}),
		InstallmentsPaid: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installments_paid_total",
			Help:      "Number of installments settled by payments.",
		}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Number of business rule rejections by error code.",
		}, []string{"code"}),
		OverdueInstallments: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overdue_installments",
			Help:      "Unpaid installments past their due date at the last overdue scan.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) LoanCreated() {
	if m == nil {
		return
	}
	m.LoansCreated.Inc()
}

func (m *Metrics) PaymentAccepted(installments int) {
	if m == nil {
		return
	}
	m.PaymentsTotal.WithLabelValues(OutcomeAccepted).Inc()
	m.InstallmentsPaid.Add(float64(installments))
}

func (m *Metrics) PaymentFailed(rejected bool) {
	if m == nil {
		return
	}
	outcome := OutcomeFailed
	if rejected {
		outcome = OutcomeRejected
	}
	m.PaymentsTotal.WithLabelValues(outcome).Inc()
}

// Rejected counts a business rule rejection. Empty codes are ignored.
func (m *Metrics) Rejected(code string) {
	if m == nil || code == "" {
		return
	}
	m.Rejections.WithLabelValues(code).Inc()
}

func (m *Metrics) SetOverdue(count int) {
	if m == nil {
		return
	}
	m.OverdueInstallments.Set(float64(count))
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
