package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/loan-engine/internal/domain"
	customError "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

// TotalRepayable is principal plus flat interest: amount × (1 + rate).
func TotalRepayable(loanAmount, interestRate decimal.Decimal) decimal.Decimal {
	return loanAmount.Mul(decimal.NewFromInt(1).Add(interestRate))
}

// InstallmentAmount is the flat amount charged on every installment of the loan.
func InstallmentAmount(loan *domain.Loan) decimal.Decimal {
	return utils.DivideMoney(TotalRepayable(loan.LoanAmount, loan.InterestRate), loan.NumberOfInstallments)
}

// PrincipalPerInstallment is the principal share of each flat installment.
func PrincipalPerInstallment(loan *domain.Loan) decimal.Decimal {
	return utils.DivideMoney(loan.LoanAmount, loan.NumberOfInstallments)
}

// BuildSchedule generates the installments of a new loan. The first installment is
// due on the first day of the month after today and the rest follow monthly.
func BuildSchedule(loan *domain.Loan, today time.Time) []*domain.Installment {
	amount := InstallmentAmount(loan)
	firstDueDate := utils.FirstDayOfNextMonth(today)

	installments := make([]*domain.Installment, 0, loan.NumberOfInstallments)
	for i := 0; i < loan.NumberOfInstallments; i++ {
		installments = append(installments, &domain.Installment{
			ID:         uuid.New(),
			LoanID:     loan.ID,
			Number:     i + 1,
			Amount:     amount,
			PaidAmount: decimal.Zero,
			DueDate:    firstDueDate.AddDate(0, i, 0),
			Paid:       false,
		})
	}

	return installments
}

// ReserveCredit consumes amount of the customer's credit line.
func ReserveCredit(customer *domain.Customer, amount decimal.Decimal) error {
	if customer.UsedCreditLimit.Add(amount).GreaterThan(customer.CreditLimit) {
		return customError.WrapInsufficientCreditLimit(customer.ID.String(), amount.String(), customer.AvailableCredit().String())
	}
	customer.UsedCreditLimit = customer.UsedCreditLimit.Add(amount)
	return nil
}

// ReleaseCredit returns a repaid principal to the customer's credit line.
func ReleaseCredit(customer *domain.Customer, amount decimal.Decimal) {
	customer.UsedCreditLimit = customer.UsedCreditLimit.Sub(amount)
}
