package service

import (
	"time"

	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	mediumDebtRatio   = decimal.RequireFromString("0.7")
	scoreBase         = decimal.NewFromInt(100)
	scorePerLatePay   = decimal.NewFromInt(10)
	scoreDebtDivisor  = decimal.NewFromInt(1000)
	highLateThreshold = 3
	midLateThreshold  = 1
)

// AnalyzeRisk scores a customer from the loans that are not yet paid.
func AnalyzeRisk(customer *domain.Customer, loans []*domain.Loan, today time.Time) *domain.RiskReport {
	activeLoans := 0
	latePayments := 0
	totalDebt := decimal.Zero

	for _, loan := range loans {
		if loan.Paid {
			continue
		}
		activeLoans++
		unpaid := loan.UnpaidInstallments()
		totalDebt = totalDebt.Add(domain.NominalTotal(unpaid))
		for _, installment := range unpaid {
			if utils.DaysBetween(installment.DueDate, today) > 0 {
				latePayments++
			}
		}
	}

	level := RiskLevelFor(latePayments, totalDebt, customer.CreditLimit)

	return &domain.RiskReport{
		CustomerID:        customer.ID,
		RiskLevel:         level,
		TotalDebt:         totalDebt,
		UnusedCreditLimit: customer.AvailableCredit(),
		ActiveLoans:       activeLoans,
		LatePayments:      latePayments,
		CreditScore:       CreditScore(latePayments, totalDebt),
		Recommendation:    level.Recommendation(),
	}
}

// RiskLevelFor buckets a customer by overdue installment count and debt-to-limit ratio.
func RiskLevelFor(latePayments int, totalDebt, creditLimit decimal.Decimal) domain.RiskLevel {
	switch {
	case latePayments > highLateThreshold || totalDebt.GreaterThan(creditLimit):
		return domain.RiskHigh
	case latePayments > midLateThreshold || totalDebt.GreaterThan(creditLimit.Mul(mediumDebtRatio)):
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// CreditScore is 100 − 10 per late payment − one point per 1000 of debt. Unbounded.
func CreditScore(latePayments int, totalDebt decimal.Decimal) decimal.Decimal {
	return scoreBase.
		Sub(scorePerLatePay.Mul(decimal.NewFromInt(int64(latePayments)))).
		Sub(totalDebt.Div(scoreDebtDivisor))
}
