package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/segyhp/loan-engine/internal/metrics"
	"github.com/segyhp/loan-engine/pkg/response"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires every route of the service.
func NewRouter(loans *LoanHandler, health *HealthHandler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.CORSMiddleware, response.LoggingMiddleware(logger), MetricsMiddleware(m))

	// Health check
	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/customers", loans.CreateCustomer).Methods(http.MethodPost)
	api.HandleFunc("/customers/{customerId}", loans.GetCustomer).Methods(http.MethodGet)
	api.HandleFunc("/customers/{customerId}/risk-analysis", loans.AnalyzeCustomerRisk).Methods(http.MethodGet)

	api.HandleFunc("/loans", loans.CreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/pay", loans.PayLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/customer/{customerId}", loans.GetCustomerLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/installments", loans.GetLoanInstallments).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/history", loans.GetLoanHistory).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/payment-plan", loans.GetPaymentPlan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/early-closure", loans.CalculateEarlyClosure).Methods(http.MethodGet)

	return router
}

// MetricsMiddleware records request latency per route template.
func MetricsMiddleware(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := response.RecordStatus(w)

			next.ServeHTTP(recorder, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			m.ObserveRequest(r.Method, route, recorder.StatusCode, time.Since(start))
		})
	}
}
