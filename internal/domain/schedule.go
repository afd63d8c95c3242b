package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/loan-engine/pkg/utils"
	"github.com/shopspring/decimal"
)

// Installment represents one scheduled repayment of a loan.
// Amount is the nominal contractual value; PaidAmount is the cash actually collected.
type Installment struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	LoanID      uuid.UUID       `json:"loan_id" db:"loan_id"`
	Number      int             `json:"installment_number" db:"installment_number"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	DueDate     time.Time       `json:"due_date" db:"due_date"`
	PaymentDate *time.Time      `json:"payment_date,omitempty" db:"payment_date"`
	Paid        bool            `json:"paid" db:"paid"`
}

// NominalTotal sums the nominal amounts of installments.
func NominalTotal(installments []*Installment) decimal.Decimal {
	amounts := make([]decimal.Decimal, len(installments))
	for i, installment := range installments {
		amounts[i] = installment.Amount
	}
	return utils.SumDecimals(amounts...)
}

// PlanRow is one line of the forward payment plan.
type PlanRow struct {
	InstallmentNumber  int             `json:"installment_number"`
	DueDate            time.Time       `json:"due_date"`
	InstallmentAmount  decimal.Decimal `json:"installment_amount"`
	PrincipalAmount    decimal.Decimal `json:"principal_amount"`
	InterestAmount     decimal.Decimal `json:"interest_amount"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
	IsPaid             bool            `json:"is_paid"`
}
