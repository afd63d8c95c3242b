package service

import (
	"sort"
	"time"

	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

// BuildHistory reconstructs the ledger of a loan: its creation followed by one entry
// per paid installment, sorted by transaction date.
//
// Payment descriptions compare the due date with today rather than with the stored
// payment date, so an installment's label can change as time passes.
func BuildHistory(loan *domain.Loan, today time.Time) []domain.HistoryEntry {
	history := make([]domain.HistoryEntry, 0, len(loan.Installments)+1)
	history = append(history, domain.HistoryEntry{
		TransactionDate: loan.CreateDate,
		TransactionType: domain.TransactionCreation,
		Amount:          loan.LoanAmount,
		RemainingDebt:   loan.LoanAmount,
		Description:     "Loan created",
	})

	for _, installment := range loan.Installments {
		if !installment.Paid || installment.PaymentDate == nil {
			continue
		}
		paymentDate := utils.DateOf(*installment.PaymentDate)
		history = append(history, domain.HistoryEntry{
			TransactionDate: paymentDate,
			TransactionType: domain.TransactionPayment,
			Amount:          installment.PaidAmount,
			RemainingDebt:   RemainingDebtAt(loan, paymentDate),
			Description:     describePayment(installment, today),
		})
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].TransactionDate.Before(history[j].TransactionDate)
	})

	return history
}

// RemainingDebtAt sums the nominal amounts of installments that were still owed at
// the end of date: unpaid ones and those paid strictly after it.
func RemainingDebtAt(loan *domain.Loan, date time.Time) decimal.Decimal {
	day := utils.DateOf(date)
	owed := make([]*domain.Installment, 0, len(loan.Installments))
	for _, installment := range loan.Installments {
		if !installment.Paid || installment.PaymentDate == nil || utils.DateOf(*installment.PaymentDate).After(day) {
			owed = append(owed, installment)
		}
	}
	return domain.NominalTotal(owed)
}

func describePayment(installment *domain.Installment, today time.Time) string {
	switch domain.TimingOf(utils.DaysBetween(today, installment.DueDate)) {
	case domain.PaymentEarly:
		return "Early payment with discount"
	case domain.PaymentLate:
		return "Late payment with penalty"
	default:
		return "Regular payment"
	}
}
