package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/loan-engine/internal/domain"

	"github.com/shopspring/decimal"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newTestLoan builds an unpaid loan with its schedule, as CreateLoan would.
func newTestLoan(amount, rate string, installments int, created time.Time) *domain.Loan {
	loan := &domain.Loan{
		ID:                   uuid.New(),
		CustomerID:           uuid.New(),
		LoanAmount:           dec(amount),
		NumberOfInstallments: installments,
		InterestRate:         dec(rate),
		CreateDate:           created,
	}
	loan.Installments = BuildSchedule(loan, created)
	return loan
}

// markPaid settles an installment at its nominal amount on the given day.
func markPaid(installment *domain.Installment, on time.Time) {
	installment.Paid = true
	installment.PaidAmount = installment.Amount
	installment.PaymentDate = &on
}
