package service

import (
	"time"

	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

const closureInstructions = "Please pay the early closure amount to complete the loan closure."

// ClosureInterestRebate is the share of remaining embedded interest forgiven on early closure.
var ClosureInterestRebate = decimal.RequireFromString("0.5")

// QuoteEarlyClosure computes the payoff amount for closing loan today.
func QuoteEarlyClosure(loan *domain.Loan, today time.Time) *domain.EarlyClosureQuote {
	unpaid := loan.UnpaidInstallments()
	remainingDebt := domain.NominalTotal(unpaid)
	// each unpaid installment carries the same principal share
	savedInterest := remainingDebt.Sub(PrincipalPerInstallment(loan).Mul(decimal.NewFromInt(int64(len(unpaid)))))

	discount := utils.RoundMoney(savedInterest.Mul(ClosureInterestRebate))

	return &domain.EarlyClosureQuote{
		TotalRemainingDebt:  remainingDebt,
		SavedInterest:       savedInterest,
		TotalDiscount:       discount,
		EarlyClosureAmount:  remainingDebt.Sub(discount),
		ClosureDate:         utils.DateOf(today),
		PaymentInstructions: closureInstructions,
	}
}
