package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType tags a loan history entry.
type TransactionType int

const (
	TransactionCreation TransactionType = iota + 1
	TransactionPayment
)

func (t TransactionType) String() string {
	switch t {
	case TransactionCreation:
		return "CREATION"
	case TransactionPayment:
		return "PAYMENT"
	default:
		return "UNKNOWN"
	}
}

func (t TransactionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// HistoryEntry is one event in a loan's ledger.
type HistoryEntry struct {
	TransactionDate time.Time       `json:"transaction_date"`
	TransactionType TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	RemainingDebt   decimal.Decimal `json:"remaining_debt"`
	Description     string          `json:"description"`
}

// RiskLevel is the coarse credit risk bucket of a customer.
type RiskLevel int

const (
	RiskLow RiskLevel = iota + 1
	RiskMedium
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// Recommendation returns the fixed advice text for the level.
func (r RiskLevel) Recommendation() string {
	switch r {
	case RiskHigh:
		return "Credit applications should be carefully evaluated. Debt restructuring might be needed."
	case RiskMedium:
		return "New credit applications can be considered with additional guarantees."
	default:
		return "Customer is eligible for new credit applications."
	}
}

// RiskReport summarises a customer's credit risk.
// CreditScore is a relative, unbounded score and may be negative.
type RiskReport struct {
	CustomerID        uuid.UUID       `json:"customer_id"`
	RiskLevel         RiskLevel       `json:"risk_level"`
	TotalDebt         decimal.Decimal `json:"total_debt"`
	UnusedCreditLimit decimal.Decimal `json:"unused_credit_limit"`
	ActiveLoans       int             `json:"active_loans"`
	LatePayments      int             `json:"late_payments"`
	CreditScore       decimal.Decimal `json:"credit_score"`
	Recommendation    string          `json:"recommendation"`
}

// EarlyClosureQuote is a read-only payoff quote for closing a loan today.
type EarlyClosureQuote struct {
	TotalRemainingDebt  decimal.Decimal `json:"total_remaining_debt"`
	SavedInterest       decimal.Decimal `json:"saved_interest"`
	TotalDiscount       decimal.Decimal `json:"total_discount"`
	EarlyClosureAmount  decimal.Decimal `json:"early_closure_amount"`
	ClosureDate         time.Time       `json:"closure_date"`
	PaymentInstructions string          `json:"payment_instructions"`
}
