package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/segyhp/loan-engine/internal/domain"
	customError "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	// EligibilityWindowMonths bounds how far ahead unpaid installments may be paid.
	EligibilityWindowMonths = 3
)

// DailyAdjustmentRate is the per-day discount for early payment and penalty for late payment.
var DailyAdjustmentRate = decimal.RequireFromString("0.001")

// Allocation is the outcome of applying a payment to a loan. Installments listed in
// Settled were mutated in place and must be persisted together with the loan.
type Allocation struct {
	Result  *domain.PaymentResult
	Settled []*domain.Installment
}

// EligibleInstallments returns unpaid installments due on or before today plus the
// eligibility window, earliest due date first.
func EligibleInstallments(loan *domain.Loan, today time.Time) []*domain.Installment {
	horizon := utils.AddMonths(today, EligibilityWindowMonths)

	eligible := make([]*domain.Installment, 0, len(loan.Installments))
	for _, installment := range loan.Installments {
		if installment.Paid {
			continue
		}
		if utils.DateOf(installment.DueDate).After(horizon) {
			continue
		}
		eligible = append(eligible, installment)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].DueDate.Before(eligible[j].DueDate)
	})

	return eligible
}

// CollectedAmount applies the early discount or late penalty to a nominal amount.
// daysDifference is due date minus payment date. The result is rounded to cents.
func CollectedAmount(nominal decimal.Decimal, daysDifference int) decimal.Decimal {
	if daysDifference == 0 {
		return nominal
	}
	days := decimal.NewFromInt(int64(daysDifference))
	// a positive day count lowers the amount, a negative one raises it
	factor := decimal.NewFromInt(1).Sub(DailyAdjustmentRate.Mul(days))
	return utils.RoundMoney(nominal.Mul(factor))
}

// AllocatePayment applies amount to the eligible installments of loan in due date
// order. The cap and the remaining pool are tracked in nominal amounts while each
// settled installment records its discount- or penalty-adjusted cash amount.
// Allocation stops at the first installment the pool cannot cover in full.
func AllocatePayment(loan *domain.Loan, amount decimal.Decimal, today time.Time) (*Allocation, error) {
	loanID := loan.ID.String()
	today = utils.DateOf(today)

	if !amount.IsPositive() {
		return nil, customError.WrapNonPositiveAmount(amount.String())
	}

	if loan.Paid {
		return nil, customError.WrapLoanAlreadyPaid(loanID)
	}

	eligible := EligibleInstallments(loan, today)
	if len(eligible) == 0 {
		return nil, customError.WrapNoEligibleInstallments(loanID)
	}

	maxPayable := domain.NominalTotal(eligible)
	if amount.GreaterThan(maxPayable) {
		return nil, customError.WrapPaymentExceedsCap(amount.String(), maxPayable.String())
	}

	result := &domain.PaymentResult{
		TotalDiscount:          decimal.Zero,
		TotalPenalty:           decimal.Zero,
		PaymentDate:            today,
		PaidInstallmentDetails: []domain.InstallmentPayment{},
	}
	settled := make([]*domain.Installment, 0, len(eligible))
	pool := amount

	for _, installment := range eligible {
		if pool.LessThan(installment.Amount) {
			break
		}

		daysDifference := utils.DaysBetween(today, installment.DueDate)
		collected := CollectedAmount(installment.Amount, daysDifference)
		paymentDate := today

		installment.Paid = true
		installment.PaidAmount = collected
		installment.PaymentDate = &paymentDate

		pool = pool.Sub(installment.Amount)
		settled = append(settled, installment)

		detail := domain.InstallmentPayment{
			InstallmentID:        installment.ID,
			DueDate:              installment.DueDate,
			OriginalAmount:       installment.Amount,
			PaidAmount:           collected,
			LateFee:              decimal.Zero,
			EarlyPaymentDiscount: decimal.Zero,
		}
		switch domain.TimingOf(daysDifference) {
		case domain.PaymentEarly:
			detail.EarlyPaymentDiscount = installment.Amount.Sub(collected)
			result.TotalDiscount = result.TotalDiscount.Add(detail.EarlyPaymentDiscount)
		case domain.PaymentLate:
			detail.WasLate = true
			detail.LateFee = collected.Sub(installment.Amount)
			result.TotalPenalty = result.TotalPenalty.Add(detail.LateFee)
		}
		result.PaidInstallmentDetails = append(result.PaidInstallmentDetails, detail)
	}

	result.PaidInstallments = len(settled)
	result.TotalPaidAmount = amount.Sub(pool)
	result.IsLoanFullyPaid = loan.AllInstallmentsPaid()
	result.RemainingDebt = loan.RemainingNominal()
	result.PaymentStatus = paymentStatus(result.PaidInstallments)

	if result.IsLoanFullyPaid {
		loan.Paid = true
	}

	return &Allocation{Result: result, Settled: settled}, nil
}

func paymentStatus(paidCount int) string {
	if paidCount == 0 {
		return "No installments were paid"
	}
	return fmt.Sprintf("Successfully paid %d installment(s)", paidCount)
}
