package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/internal/lock"
	"github.com/segyhp/loan-engine/internal/metrics"
	"github.com/segyhp/loan-engine/internal/repository"
	customError "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type LoanService struct {
	customerRepo repository.CustomerRepository
	loanRepo     repository.LoanRepository
	tx           repository.Transactor
	locker       lock.Locker
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

type Option func(*LoanService)

// WithClock overrides the time source used for today's date.
func WithClock(now func() time.Time) Option {
	return func(s *LoanService) {
		s.now = now
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *LoanService) {
		s.metrics = m
	}
}

func NewLoanService(
	customerRepo repository.CustomerRepository,
	loanRepo repository.LoanRepository,
	tx repository.Transactor,
	locker lock.Locker,
	logger *zap.Logger,
	opts ...Option,
) *LoanService {
	s := &LoanService{
		customerRepo: customerRepo,
		loanRepo:     loanRepo,
		tx:           tx,
		locker:       locker,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func (s *LoanService) today() time.Time {
	return utils.DateOf(s.now())
}

// CreateCustomer opens a credit line for a new customer.
func (s *LoanService) CreateCustomer(ctx context.Context, req *domain.CreateCustomerRequest) (*domain.Customer, error) {
	if err := ValidateCustomerRequest(req); err != nil {
		s.metrics.Rejected(customError.CodeOf(err))
		return nil, err
	}

	customer := &domain.Customer{
		ID:              uuid.New(),
		Name:            req.Name,
		Surname:         req.Surname,
		CreditLimit:     req.CreditLimit,
		UsedCreditLimit: req.UsedCreditLimit,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		s.logger.Error("failed to create customer", zap.Error(err))
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("credit_limit", customer.CreditLimit.String()),
	)

	return customer, nil
}

func (s *LoanService) GetCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Customer, error) {
	return s.loadCustomer(ctx, customerID, false)
}

// CreateLoan validates the request, reserves the principal on the customer's credit line
// and stores the loan with its installment schedule in one transaction.
func (s *LoanService) CreateLoan(ctx context.Context, req *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	if err := ValidateLoanRequest(req.Amount, req.InterestRate, req.NumberOfInstallments); err != nil {
		s.metrics.Rejected(customError.CodeOf(err))
		return nil, err
	}

	now := s.now().UTC()
	var loan *domain.Loan

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.loadCustomer(ctx, req.CustomerID, true)
		if err != nil {
			return err
		}

		if err := ReserveCredit(customer, req.Amount); err != nil {
			return err
		}

		loan = &domain.Loan{
			ID:                   uuid.New(),
			CustomerID:           customer.ID,
			LoanAmount:           req.Amount,
			NumberOfInstallments: req.NumberOfInstallments,
			InterestRate:         req.InterestRate,
			CreateDate:           now,
			Paid:                 false,
		}
		loan.Installments = BuildSchedule(loan, now)

		if err := s.loanRepo.Create(ctx, loan); err != nil {
			return customError.WrapDatabaseError(err)
		}

		if err := s.customerRepo.Update(ctx, customer); err != nil {
			return customError.WrapDatabaseError(err)
		}

		return nil
	})
	if err != nil {
		err = storeError(err)
		s.recordFailure("failed to create loan", err, zap.String("customer_id", req.CustomerID.String()))
		return nil, err
	}

	s.metrics.LoanCreated()
	s.logger.Info("loan created",
		zap.String("loan_id", loan.ID.String()),
		zap.String("customer_id", loan.CustomerID.String()),
		zap.String("amount", loan.LoanAmount.String()),
		zap.Int("installments", loan.NumberOfInstallments),
	)

	return &domain.CreateLoanResponse{
		Loan:         loan,
		Installments: loan.Installments,
	}, nil
}

// GetCustomerLoans lists a customer's loans that pass filter, oldest first.
func (s *LoanService) GetCustomerLoans(ctx context.Context, customerID uuid.UUID, filter domain.LoanFilter) ([]domain.CustomerLoan, error) {
	if _, err := s.loadCustomer(ctx, customerID, false); err != nil {
		return nil, err
	}

	loans, err := s.loanRepo.ListByCustomerID(ctx, customerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return SummarizeLoans(loans, filter), nil
}

func (s *LoanService) GetLoanInstallments(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error) {
	loan, err := s.loadLoan(ctx, loanID, false)
	if err != nil {
		return nil, err
	}
	return loan.Installments, nil
}

// PayLoan applies amount to the loan's eligible installments. Payments on the same loan
// are serialized by a lock and the loan row is re-read inside the transaction. When the
// last installment is settled the principal is released back to the customer.
func (s *LoanService) PayLoan(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal) (*domain.PaymentResult, error) {
	if !amount.IsPositive() {
		err := customError.WrapNonPositiveAmount(amount.String())
		s.metrics.PaymentFailed(true)
		s.metrics.Rejected(customError.CodeOf(err))
		return nil, err
	}

	lease, err := s.locker.Lock(ctx, lock.LoanKey(loanID))
	if err != nil {
		s.metrics.PaymentFailed(false)
		s.logger.Warn("failed to acquire loan lock", zap.String("loan_id", loanID.String()), zap.Error(err))
		return nil, err
	}
	defer func() {
		if err := lease.Unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release loan lock", zap.String("loan_id", loanID.String()), zap.Error(err))
		}
	}()

	today := s.today()
	var result *domain.PaymentResult

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		loan, err := s.loadLoan(ctx, loanID, true)
		if err != nil {
			return err
		}

		allocation, err := AllocatePayment(loan, amount, today)
		if err != nil {
			return err
		}

		if err := s.loanRepo.UpdateInstallments(ctx, allocation.Settled); err != nil {
			return customError.WrapDatabaseError(err)
		}

		if allocation.Result.IsLoanFullyPaid {
			if err := s.loanRepo.Update(ctx, loan); err != nil {
				return customError.WrapDatabaseError(err)
			}

			customer, err := s.loadCustomer(ctx, loan.CustomerID, true)
			if err != nil {
				return err
			}
			ReleaseCredit(customer, loan.LoanAmount)
			if err := s.customerRepo.Update(ctx, customer); err != nil {
				return customError.WrapDatabaseError(err)
			}
		}

		result = allocation.Result
		return nil
	})
	if err != nil {
		err = storeError(err)
		s.metrics.PaymentFailed(customError.IsBusiness(err))
		s.recordFailure("failed to pay loan", err, zap.String("loan_id", loanID.String()))
		return nil, err
	}

	s.metrics.PaymentAccepted(result.PaidInstallments)
	s.logger.Info("loan payment applied",
		zap.String("loan_id", loanID.String()),
		zap.String("amount", amount.String()),
		zap.Int("paid_installments", result.PaidInstallments),
		zap.String("total_paid", result.TotalPaidAmount.String()),
		zap.Bool("fully_paid", result.IsLoanFullyPaid),
	)

	return result, nil
}

func (s *LoanService) GetLoanHistory(ctx context.Context, loanID uuid.UUID) ([]domain.HistoryEntry, error) {
	loan, err := s.loadLoan(ctx, loanID, false)
	if err != nil {
		return nil, err
	}
	return BuildHistory(loan, s.today()), nil
}

func (s *LoanService) GetPaymentPlan(ctx context.Context, loanID uuid.UUID) ([]domain.PlanRow, error) {
	loan, err := s.loadLoan(ctx, loanID, false)
	if err != nil {
		return nil, err
	}
	return BuildPaymentPlan(loan), nil
}

func (s *LoanService) AnalyzeCustomerRisk(ctx context.Context, customerID uuid.UUID) (*domain.RiskReport, error) {
	customer, err := s.loadCustomer(ctx, customerID, false)
	if err != nil {
		return nil, err
	}

	loans, err := s.loanRepo.ListByCustomerID(ctx, customerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return AnalyzeRisk(customer, loans, s.today()), nil
}

func (s *LoanService) CalculateEarlyClosure(ctx context.Context, loanID uuid.UUID) (*domain.EarlyClosureQuote, error) {
	loan, err := s.loadLoan(ctx, loanID, false)
	if err != nil {
		return nil, err
	}
	return QuoteEarlyClosure(loan, s.today()), nil
}

// ListUnpaidLoans returns every loan that still has unpaid installments.
func (s *LoanService) ListUnpaidLoans(ctx context.Context) ([]*domain.Loan, error) {
	loans, err := s.loanRepo.ListUnpaid(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

func (s *LoanService) loadCustomer(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Customer, error) {
	get := s.customerRepo.GetByID
	if forUpdate {
		get = s.customerRepo.GetByIDForUpdate
	}

	customer, err := get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapCustomerNotFound(id.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return customer, nil
}

func (s *LoanService) loadLoan(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Loan, error) {
	get := s.loanRepo.GetByID
	if forUpdate {
		get = s.loanRepo.GetByIDForUpdate
	}

	loan, err := get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(id.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

func (s *LoanService) recordFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if customError.IsBusiness(err) {
		s.metrics.Rejected(customError.CodeOf(err))
		s.logger.Info(msg, fields...)
		return
	}
	s.logger.Error(msg, fields...)
}

// storeError keeps coded errors as they are and marks anything else, such as a failed
// begin or commit, as a database failure.
func storeError(err error) error {
	if customError.CodeOf(err) != "" {
		return err
	}
	return customError.WrapDatabaseError(err)
}
