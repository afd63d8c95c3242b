package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Loan represents a loan entity. Installments are loaded alongside the loan and
// are owned exclusively by it.
type Loan struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	CustomerID           uuid.UUID       `json:"customer_id" db:"customer_id"`
	LoanAmount           decimal.Decimal `json:"loan_amount" db:"loan_amount"`
	NumberOfInstallments int             `json:"number_of_installments" db:"number_of_installments"`
	InterestRate         decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	CreateDate           time.Time       `json:"create_date" db:"create_date"`
	Paid                 bool            `json:"paid" db:"paid"`
	Installments         []*Installment  `json:"installments,omitempty" db:"-"`
}

// UnpaidInstallments returns the installments not yet paid, in stored order.
func (l *Loan) UnpaidInstallments() []*Installment {
	unpaid := make([]*Installment, 0, len(l.Installments))
	for _, installment := range l.Installments {
		if !installment.Paid {
			unpaid = append(unpaid, installment)
		}
	}
	return unpaid
}

// AllInstallmentsPaid reports whether every installment on the loan is paid.
func (l *Loan) AllInstallmentsPaid() bool {
	for _, installment := range l.Installments {
		if !installment.Paid {
			return false
		}
	}
	return true
}

// RemainingNominal sums the nominal amounts of unpaid installments.
func (l *Loan) RemainingNominal() decimal.Decimal {
	return NominalTotal(l.UnpaidInstallments())
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	CustomerID           uuid.UUID       `json:"customer_id" validate:"required"`
	Amount               decimal.Decimal `json:"amount"`
	InterestRate         decimal.Decimal `json:"interest_rate"`
	NumberOfInstallments int             `json:"number_of_installments"`
}

type CreateLoanResponse struct {
	Loan         *Loan          `json:"loan"`
	Installments []*Installment `json:"installments"`
}

// CustomerLoan is the summary of one loan in a customer's portfolio.
type CustomerLoan struct {
	ID                   uuid.UUID       `json:"id"`
	LoanAmount           decimal.Decimal `json:"loan_amount"`
	RemainingAmount      decimal.Decimal `json:"remaining_amount"`
	NumberOfInstallments int             `json:"number_of_installments"`
	CreateDate           time.Time       `json:"create_date"`
	IsPaid               bool            `json:"is_paid"`
}

// LoanFilter narrows a customer's loan list. Nil fields are ignored; ranges are inclusive.
type LoanFilter struct {
	NumberOfInstallments *int
	IsPaid               *bool
	StartDate            *time.Time
	EndDate              *time.Time
	MinAmount            *decimal.Decimal
	MaxAmount            *decimal.Decimal
}
