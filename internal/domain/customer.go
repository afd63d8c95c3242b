package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer represents a borrower and their credit line.
type Customer struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Surname         string          `json:"surname" db:"surname"`
	CreditLimit     decimal.Decimal `json:"credit_limit" db:"credit_limit"`
	UsedCreditLimit decimal.Decimal `json:"used_credit_limit" db:"used_credit_limit"`
}

// AvailableCredit is the unused part of the credit line.
func (c *Customer) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.UsedCreditLimit)
}

type CreateCustomerRequest struct {
	Name            string          `json:"name" validate:"required,max=100"`
	Surname         string          `json:"surname" validate:"required,max=100"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	UsedCreditLimit decimal.Decimal `json:"used_credit_limit"`
}
