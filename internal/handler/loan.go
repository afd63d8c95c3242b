package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/segyhp/loan-engine/internal/domain"
	customError "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// LoanService is the set of loan operations exposed over HTTP.
type LoanService interface {
	CreateCustomer(ctx context.Context, req *domain.CreateCustomerRequest) (*domain.Customer, error)
	GetCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Customer, error)
	CreateLoan(ctx context.Context, req *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error)
	GetCustomerLoans(ctx context.Context, customerID uuid.UUID, filter domain.LoanFilter) ([]domain.CustomerLoan, error)
	GetLoanInstallments(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error)
	PayLoan(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal) (*domain.PaymentResult, error)
	GetLoanHistory(ctx context.Context, loanID uuid.UUID) ([]domain.HistoryEntry, error)
	GetPaymentPlan(ctx context.Context, loanID uuid.UUID) ([]domain.PlanRow, error)
	AnalyzeCustomerRisk(ctx context.Context, customerID uuid.UUID) (*domain.RiskReport, error)
	CalculateEarlyClosure(ctx context.Context, loanID uuid.UUID) (*domain.EarlyClosureQuote, error)
}

type LoanHandler struct {
	service   LoanService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewLoanHandler(service LoanService, logger *zap.Logger) *LoanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoanHandler{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// CreateCustomer handles POST /api/v1/customers
func (h *LoanHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCustomerRequest
	if !h.decode(w, r, &req) {
		return
	}

	customer, err := h.service.CreateCustomer(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, customer)
}

// GetCustomer handles GET /api/v1/customers/{customerId}
func (h *LoanHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, customer)
}

// AnalyzeCustomerRisk handles GET /api/v1/customers/{customerId}/risk-analysis
func (h *LoanHandler) AnalyzeCustomerRisk(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}

	report, err := h.service.AnalyzeCustomerRisk(r.Context(), customerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, report)
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.CreateLoan(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, resp)
}

// GetCustomerLoans handles GET /api/v1/loans/customer/{customerId}
func (h *LoanHandler) GetCustomerLoans(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}

	filter, err := parseLoanFilter(r)
	if err != nil {
		response.BadRequest(w, "Invalid filter", err)
		return
	}

	loans, err := h.service.GetCustomerLoans(r.Context(), customerID, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, loans)
}

// GetLoanInstallments handles GET /api/v1/loans/{loanId}/installments
func (h *LoanHandler) GetLoanInstallments(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	installments, err := h.service.GetLoanInstallments(r.Context(), loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, installments)
}

// PayLoan handles POST /api/v1/loans/pay
func (h *LoanHandler) PayLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.PayLoanRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.PayLoan(r.Context(), req.LoanID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, result)
}

// GetLoanHistory handles GET /api/v1/loans/{loanId}/history
func (h *LoanHandler) GetLoanHistory(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	history, err := h.service.GetLoanHistory(r.Context(), loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, history)
}

// GetPaymentPlan handles GET /api/v1/loans/{loanId}/payment-plan
func (h *LoanHandler) GetPaymentPlan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	plan, err := h.service.GetPaymentPlan(r.Context(), loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, plan)
}

// CalculateEarlyClosure handles GET /api/v1/loans/{loanId}/early-closure
func (h *LoanHandler) CalculateEarlyClosure(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	quote, err := h.service.CalculateEarlyClosure(r.Context(), loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, quote)
}

// decode reads and validates a JSON body, writing a 400 response on failure.
func (h *LoanHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return false
	}

	return true
}

// writeError maps service errors onto HTTP statuses.
func (h *LoanHandler) writeError(w http.ResponseWriter, err error) {
	code := customError.CodeOf(err)

	var be *customError.BusinessError
	message := "Internal server error"
	if errors.As(err, &be) {
		message = be.Message
	}

	switch {
	case code == customError.ErrCodeLockNotAcquired:
		response.Conflict(w, code, message)
	case customError.IsInternal(err):
		h.logger.Error("request failed", zap.String("code", code), zap.Error(err))
		response.InternalServerError(w, code)
	case errors.Is(err, customError.ErrNotFound):
		response.NotFound(w, code, message)
	case errors.Is(err, customError.ErrInvalidInstallmentCount),
		errors.Is(err, customError.ErrInterestRateOutOfRange),
		errors.Is(err, customError.ErrNonPositiveAmount),
		errors.Is(err, customError.ErrInvalidPrecision),
		errors.Is(err, customError.ErrInvalidCustomer):
		response.Rejected(w, code, message)
	default:
		response.UnprocessableEntity(w, code, message)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func parseLoanFilter(r *http.Request) (domain.LoanFilter, error) {
	var filter domain.LoanFilter
	query := r.URL.Query()

	if v := query.Get("installments"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, errors.New("installments must be an integer")
		}
		filter.NumberOfInstallments = &n
	}

	if v := query.Get("paid"); v != "" {
		paid, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errors.New("paid must be true or false")
		}
		filter.IsPaid = &paid
	}

	for key, dst := range map[string]**time.Time{"start_date": &filter.StartDate, "end_date": &filter.EndDate} {
		if v := query.Get(key); v != "" {
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				return filter, errors.New(key + " must be formatted as YYYY-MM-DD")
			}
			*dst = &t
		}
	}

	for key, dst := range map[string]**decimal.Decimal{"min_amount": &filter.MinAmount, "max_amount": &filter.MaxAmount} {
		if v := query.Get(key); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return filter, errors.New(key + " must be a decimal number")
			}
			*dst = &d
		}
	}

	return filter, nil
}
