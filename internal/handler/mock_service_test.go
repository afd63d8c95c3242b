package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/loan-engine/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) CreateCustomer(ctx context.Context, req *domain.CreateCustomerRequest) (*domain.Customer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockLoanService) GetCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockLoanService) CreateLoan(ctx context.Context, req *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreateLoanResponse), args.Error(1)
}

func (m *MockLoanService) GetCustomerLoans(ctx context.Context, customerID uuid.UUID, filter domain.LoanFilter) ([]domain.CustomerLoan, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CustomerLoan), args.Error(1)
}

func (m *MockLoanService) GetLoanInstallments(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *MockLoanService) PayLoan(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal) (*domain.PaymentResult, error) {
	args := m.Called(ctx, loanID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResult), args.Error(1)
}

func (m *MockLoanService) GetLoanHistory(ctx context.Context, loanID uuid.UUID) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}

func (m *MockLoanService) GetPaymentPlan(ctx context.Context, loanID uuid.UUID) ([]domain.PlanRow, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PlanRow), args.Error(1)
}

func (m *MockLoanService) AnalyzeCustomerRisk(ctx context.Context, customerID uuid.UUID) (*domain.RiskReport, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RiskReport), args.Error(1)
}

func (m *MockLoanService) CalculateEarlyClosure(ctx context.Context, loanID uuid.UUID) (*domain.EarlyClosureQuote, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EarlyClosureQuote), args.Error(1)
}
