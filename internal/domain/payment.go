package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PayLoanRequest struct {
	LoanID uuid.UUID       `json:"loan_id" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentTiming classifies when an installment was settled relative to its due date.
type PaymentTiming int

const (
	PaymentOnTime PaymentTiming = iota
	PaymentEarly
	PaymentLate
)

func (t PaymentTiming) String() string {
	switch t {
	case PaymentEarly:
		return "early"
	case PaymentLate:
		return "late"
	default:
		return "on_time"
	}
}

// TimingOf classifies a signed day difference (due date minus payment date).
func TimingOf(daysDifference int) PaymentTiming {
	switch {
	case daysDifference > 0:
		return PaymentEarly
	case daysDifference < 0:
		return PaymentLate
	default:
		return PaymentOnTime
	}
}

// InstallmentPayment describes how a single installment was settled by a payment.
type InstallmentPayment struct {
	InstallmentID        uuid.UUID       `json:"installment_id"`
	DueDate              time.Time       `json:"due_date"`
	OriginalAmount       decimal.Decimal `json:"original_amount"`
	PaidAmount           decimal.Decimal `json:"paid_amount"`
	WasLate              bool            `json:"was_late"`
	LateFee              decimal.Decimal `json:"late_fee"`
	EarlyPaymentDiscount decimal.Decimal `json:"early_payment_discount"`
}

// PaymentResult is returned by a pay-loan operation.
// TotalPaidAmount is measured in nominal terms: the proposed amount minus the unused pool.
type PaymentResult struct {
	PaidInstallments       int                  `json:"paid_installments"`
	TotalPaidAmount        decimal.Decimal      `json:"total_paid_amount"`
	IsLoanFullyPaid        bool                 `json:"is_loan_fully_paid"`
	TotalDiscount          decimal.Decimal      `json:"total_discount"`
	TotalPenalty           decimal.Decimal      `json:"total_penalty"`
	RemainingDebt          decimal.Decimal      `json:"remaining_debt"`
	PaymentDate            time.Time            `json:"payment_date"`
	PaymentStatus          string               `json:"payment_status"`
	PaidInstallmentDetails []InstallmentPayment `json:"paid_installment_details"`
}
