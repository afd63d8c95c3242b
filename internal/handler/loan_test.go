package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/internal/metrics"
	customError "github.com/segyhp/loan-engine/pkg/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

func setupRouter(t *testing.T) (*mux.Router, *MockLoanService) {
	t.Helper()

	svc := new(MockLoanService)
	t.Cleanup(func() { svc.AssertExpectations(t) })

	reg := prometheus.NewRegistry()
	router := NewRouter(
		NewLoanHandler(svc, zap.NewNop()),
		NewHealthHandler(nil, nil, time.Second),
		metrics.New(reg),
		reg,
		zap.NewNop(),
	)
	return router, svc
}

func serve(router http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestLoanHandler_CreateLoan(t *testing.T) {
	customerID := uuid.New()

	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*MockLoanService)
		expectedStatus int
		checkResponse  func(*testing.T, envelope)
	}{
		{
			name: "created",
			body: map[string]interface{}{
				"customer_id":            customerID.String(),
				"amount":                 10000,
				"interest_rate":          "0.2",
				"number_of_installments": 6,
			},
			setupMock: func(svc *MockLoanService) {
				loan := &domain.Loan{
					ID:                   uuid.New(),
					CustomerID:           customerID,
					LoanAmount:           decimal.RequireFromString("10000"),
					NumberOfInstallments: 6,
					InterestRate:         decimal.RequireFromString("0.2"),
				}
				svc.On("CreateLoan", mock.Anything, mock.MatchedBy(func(req *domain.CreateLoanRequest) bool {
					return req.CustomerID == customerID &&
						req.Amount.Equal(decimal.RequireFromString("10000")) &&
						req.InterestRate.Equal(decimal.RequireFromString("0.2")) &&
						req.NumberOfInstallments == 6
				})).Return(&domain.CreateLoanResponse{Loan: loan, Installments: []*domain.Installment{}}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, env envelope) {
				assert.True(t, env.Success)
				var resp domain.CreateLoanResponse
				require.NoError(t, json.Unmarshal(env.Data, &resp))
				require.NotNil(t, resp.Loan)
				assert.Equal(t, customerID, resp.Loan.CustomerID)
				assert.True(t, resp.Loan.LoanAmount.Equal(decimal.RequireFromString("10000")))
			},
		},
		{
			name: "missing customer id",
			body: map[string]interface{}{
				"amount":                 10000,
				"interest_rate":          0.2,
				"number_of_installments": 6,
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, env envelope) {
				assert.False(t, env.Success)
				assert.Equal(t, "Validation failed", env.Message)
			},
		},
		{
			name:           "malformed body",
			body:           `{"customer_id":`,
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, env envelope) {
				assert.Equal(t, "Invalid request body", env.Message)
			},
		},
		{
			name: "insufficient credit limit",
			body: map[string]interface{}{
				"customer_id":            customerID.String(),
				"amount":                 "50000",
				"interest_rate":          "0.2",
				"number_of_installments": 12,
			},
			setupMock: func(svc *MockLoanService) {
				svc.On("CreateLoan", mock.Anything, mock.Anything).
					Return(nil, customError.WrapInsufficientCreditLimit(customerID.String(), "50000", "1000")).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			checkResponse: func(t *testing.T, env envelope) {
				assert.Equal(t, customError.ErrCodeInsufficientCreditLimit, env.Code)
				assert.Contains(t, env.Message, "available credit limit is 1000")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc := setupRouter(t)
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}

			w := serve(router, http.MethodPost, "/api/v1/loans", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.checkResponse(t, decodeEnvelope(t, w))
		})
	}
}

func TestLoanHandler_ErrorMapping(t *testing.T) {
	loanID := uuid.New()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{name: "loan not found", err: customError.WrapLoanNotFound(loanID.String()), expectedStatus: http.StatusNotFound, expectedCode: customError.ErrCodeLoanNotFound},
		{name: "request shape", err: customError.WrapNonPositiveAmount("0"), expectedStatus: http.StatusBadRequest, expectedCode: customError.ErrCodeNonPositiveAmount},
		{name: "too many decimal places", err: customError.WrapInvalidPrecision("amount", "2000.001", 2), expectedStatus: http.StatusBadRequest, expectedCode: customError.ErrCodeInvalidPrecision},
		{name: "redis failure", err: customError.WrapCacheError(errors.New("connection reset")), expectedStatus: http.StatusInternalServerError, expectedCode: customError.ErrCodeCacheError},
		{name: "already paid", err: customError.WrapLoanAlreadyPaid(loanID.String()), expectedStatus: http.StatusUnprocessableEntity, expectedCode: customError.ErrCodeLoanAlreadyPaid},
		{name: "no eligible installments", err: customError.WrapNoEligibleInstallments(loanID.String()), expectedStatus: http.StatusUnprocessableEntity, expectedCode: customError.ErrCodeNoEligibleInstallments},
		{name: "above cap", err: customError.WrapPaymentExceedsCap("9000", "6000"), expectedStatus: http.StatusUnprocessableEntity, expectedCode: customError.ErrCodePaymentExceedsCap},
		{name: "lock contention", err: customError.WrapLockNotAcquired("loan:x", errors.New("busy")), expectedStatus: http.StatusConflict, expectedCode: customError.ErrCodeLockNotAcquired},
		{name: "database failure", err: customError.WrapDatabaseError(errors.New("connection reset")), expectedStatus: http.StatusInternalServerError, expectedCode: customError.ErrCodeDatabaseError},
		{name: "unknown failure", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc := setupRouter(t)
			svc.On("PayLoan", mock.Anything, loanID, mock.Anything).Return(nil, tt.err).Once()

			w := serve(router, http.MethodPost, "/api/v1/loans/pay", map[string]interface{}{
				"loan_id": loanID.String(),
				"amount":  "2000",
			})

			assert.Equal(t, tt.expectedStatus, w.Code)
			env := decodeEnvelope(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.expectedCode, env.Code)
			if tt.expectedStatus == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "connection reset")
			}
		})
	}
}

func TestLoanHandler_PayLoan(t *testing.T) {
	router, svc := setupRouter(t)
	loanID := uuid.New()

	svc.On("PayLoan", mock.Anything, loanID, mock.MatchedBy(func(amount decimal.Decimal) bool {
		return amount.Equal(decimal.RequireFromString("4000.50"))
	})).Return(&domain.PaymentResult{
		PaidInstallments: 2,
		TotalPaidAmount:  decimal.RequireFromString("4000"),
		PaymentStatus:    "Successfully paid 2 installment(s)",
	}, nil).Once()

	w := serve(router, http.MethodPost, "/api/v1/loans/pay", map[string]interface{}{
		"loan_id": loanID.String(),
		"amount":  4000.50,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)

	var result domain.PaymentResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.PaidInstallments)
	assert.Equal(t, "Successfully paid 2 installment(s)", result.PaymentStatus)
}

func TestLoanHandler_GetCustomerLoans(t *testing.T) {
	customerID := uuid.New()

	t.Run("parses every filter", func(t *testing.T) {
		router, svc := setupRouter(t)
		svc.On("GetCustomerLoans", mock.Anything, customerID, mock.MatchedBy(func(f domain.LoanFilter) bool {
			return f.NumberOfInstallments != nil && *f.NumberOfInstallments == 12 &&
				f.IsPaid != nil && !*f.IsPaid &&
				f.StartDate != nil && f.StartDate.Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)) &&
				f.EndDate != nil && f.EndDate.Equal(time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)) &&
				f.MinAmount != nil && f.MinAmount.Equal(decimal.RequireFromString("1000")) &&
				f.MaxAmount != nil && f.MaxAmount.Equal(decimal.RequireFromString("5000.5"))
		})).Return([]domain.CustomerLoan{{ID: uuid.New(), NumberOfInstallments: 12}}, nil).Once()

		target := "/api/v1/loans/customer/" + customerID.String() +
			"?installments=12&paid=false&start_date=2024-01-01&end_date=2024-03-31&min_amount=1000&max_amount=5000.5"
		w := serve(router, http.MethodGet, target, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var loans []domain.CustomerLoan
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &loans))
		assert.Len(t, loans, 1)
	})

	t.Run("no filter", func(t *testing.T) {
		router, svc := setupRouter(t)
		svc.On("GetCustomerLoans", mock.Anything, customerID, domain.LoanFilter{}).Return([]domain.CustomerLoan{}, nil).Once()

		w := serve(router, http.MethodGet, "/api/v1/loans/customer/"+customerID.String(), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	invalid := []string{
		"installments=six",
		"paid=maybe",
		"start_date=01/02/2024",
		"end_date=2024-13-01",
		"min_amount=lots",
		"max_amount=1e",
	}
	for _, query := range invalid {
		t.Run("rejects "+query, func(t *testing.T) {
			router, _ := setupRouter(t)

			w := serve(router, http.MethodGet, "/api/v1/loans/customer/"+customerID.String()+"?"+query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Invalid filter", decodeEnvelope(t, w).Message)
		})
	}
}

func TestLoanHandler_ReadEndpoints(t *testing.T) {
	loanID := uuid.New()
	customerID := uuid.New()

	tests := []struct {
		name      string
		target    string
		setupMock func(*MockLoanService)
		contains  string
	}{
		{
			name:   "installments",
			target: "/api/v1/loans/" + loanID.String() + "/installments",
			setupMock: func(svc *MockLoanService) {
				svc.On("GetLoanInstallments", mock.Anything, loanID).Return([]*domain.Installment{{ID: uuid.New(), Number: 1}}, nil).Once()
			},
			contains: `"installment_number":1`,
		},
		{
			name:   "history",
			target: "/api/v1/loans/" + loanID.String() + "/history",
			setupMock: func(svc *MockLoanService) {
				svc.On("GetLoanHistory", mock.Anything, loanID).Return([]domain.HistoryEntry{
					{TransactionType: domain.TransactionCreation, Description: "Loan created"},
				}, nil).Once()
			},
			contains: `"transaction_type":"CREATION"`,
		},
		{
			name:   "payment plan",
			target: "/api/v1/loans/" + loanID.String() + "/payment-plan",
			setupMock: func(svc *MockLoanService) {
				svc.On("GetPaymentPlan", mock.Anything, loanID).Return([]domain.PlanRow{{InstallmentNumber: 1}}, nil).Once()
			},
			contains: `"remaining_principal"`,
		},
		{
			name:   "early closure",
			target: "/api/v1/loans/" + loanID.String() + "/early-closure",
			setupMock: func(svc *MockLoanService) {
				svc.On("CalculateEarlyClosure", mock.Anything, loanID).Return(&domain.EarlyClosureQuote{
					EarlyClosureAmount: decimal.RequireFromString("11000.01"),
				}, nil).Once()
			},
			contains: `"early_closure_amount":"11000.01"`,
		},
		{
			name:   "risk analysis",
			target: "/api/v1/customers/" + customerID.String() + "/risk-analysis",
			setupMock: func(svc *MockLoanService) {
				svc.On("AnalyzeCustomerRisk", mock.Anything, customerID).Return(&domain.RiskReport{
					CustomerID: customerID,
					RiskLevel:  domain.RiskHigh,
				}, nil).Once()
			},
			contains: `"risk_level":"HIGH"`,
		},
		{
			name:   "customer",
			target: "/api/v1/customers/" + customerID.String(),
			setupMock: func(svc *MockLoanService) {
				svc.On("GetCustomer", mock.Anything, customerID).Return(&domain.Customer{ID: customerID, Name: "Ada"}, nil).Once()
			},
			contains: `"name":"Ada"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc := setupRouter(t)
			tt.setupMock(svc)

			w := serve(router, http.MethodGet, tt.target, nil)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestLoanHandler_InvalidPathID(t *testing.T) {
	router, _ := setupRouter(t)

	w := serve(router, http.MethodGet, "/api/v1/loans/not-a-uuid/history", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid loanId", decodeEnvelope(t, w).Message)
}

func TestLoanHandler_CreateCustomer(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router, svc := setupRouter(t)
		svc.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(req *domain.CreateCustomerRequest) bool {
			return req.Name == "Ada" && req.CreditLimit.Equal(decimal.RequireFromString("10000"))
		})).Return(&domain.Customer{ID: uuid.New(), Name: "Ada"}, nil).Once()

		w := serve(router, http.MethodPost, "/api/v1/customers", map[string]interface{}{
			"name":         "Ada",
			"surname":      "Lovelace",
			"credit_limit": 10000,
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("missing surname", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := serve(router, http.MethodPost, "/api/v1/customers", map[string]interface{}{
			"name":         "Ada",
			"credit_limit": 10000,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid credit line", func(t *testing.T) {
		router, svc := setupRouter(t)
		svc.On("CreateCustomer", mock.Anything, mock.Anything).
			Return(nil, customError.WrapInvalidCustomer("used credit limit must not exceed credit limit")).Once()

		w := serve(router, http.MethodPost, "/api/v1/customers", map[string]interface{}{
			"name":              "Ada",
			"surname":           "Lovelace",
			"credit_limit":      100,
			"used_credit_limit": 200,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, customError.ErrCodeInvalidCustomer, decodeEnvelope(t, w).Code)
	})
}

func TestRouter_Metrics(t *testing.T) {
	router, svc := setupRouter(t)
	loanID := uuid.New()
	svc.On("GetPaymentPlan", mock.Anything, loanID).Return([]domain.PlanRow{}, nil).Once()

	serve(router, http.MethodGet, "/api/v1/loans/"+loanID.String()+"/payment-plan", nil)

	w := serve(router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, "loan_engine_http_request_duration_seconds"))
	assert.True(t, strings.Contains(body, `route="/api/v1/loans/{loanId}/payment-plan"`))
}

func TestHealthHandler_Health(t *testing.T) {
	router, _ := setupRouter(t)

	w := serve(router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
