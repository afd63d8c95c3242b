package service

import (
	"github.com/segyhp/loan-engine/internal/domain"
)

// BuildPaymentPlan projects the flat schedule of a loan into principal and interest
// parts. Remaining principal decreases by a constant step per row and is not clamped,
// so rounding may leave the final rows slightly below zero.
func BuildPaymentPlan(loan *domain.Loan) []domain.PlanRow {
	installmentAmount := InstallmentAmount(loan)
	principal := PrincipalPerInstallment(loan)
	interest := installmentAmount.Sub(principal)

	plan := make([]domain.PlanRow, 0, len(loan.Installments))
	remainingPrincipal := loan.LoanAmount

	for i, installment := range loan.Installments {
		plan = append(plan, domain.PlanRow{
			InstallmentNumber:  i + 1,
			DueDate:            installment.DueDate,
			InstallmentAmount:  installmentAmount,
			PrincipalAmount:    principal,
			InterestAmount:     interest,
			RemainingPrincipal: remainingPrincipal,
			IsPaid:             installment.Paid,
		})
		remainingPrincipal = remainingPrincipal.Sub(principal)
	}

	return plan
}
