package service

import (
	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/pkg/utils"
)

// SummarizeLoan builds the portfolio view of a loan.
func SummarizeLoan(loan *domain.Loan) domain.CustomerLoan {
	return domain.CustomerLoan{
		ID:                   loan.ID,
		LoanAmount:           loan.LoanAmount,
		RemainingAmount:      loan.RemainingNominal(),
		NumberOfInstallments: loan.NumberOfInstallments,
		CreateDate:           loan.CreateDate,
		IsPaid:               loan.Paid,
	}
}

// Matches reports whether loan passes every set criterion of filter.
func Matches(filter domain.LoanFilter, loan *domain.Loan) bool {
	if filter.NumberOfInstallments != nil && loan.NumberOfInstallments != *filter.NumberOfInstallments {
		return false
	}
	if filter.IsPaid != nil && loan.Paid != *filter.IsPaid {
		return false
	}
	created := utils.DateOf(loan.CreateDate)
	if filter.StartDate != nil && created.Before(utils.DateOf(*filter.StartDate)) {
		return false
	}
	if filter.EndDate != nil && created.After(utils.DateOf(*filter.EndDate)) {
		return false
	}
	if filter.MinAmount != nil && loan.LoanAmount.LessThan(*filter.MinAmount) {
		return false
	}
	if filter.MaxAmount != nil && loan.LoanAmount.GreaterThan(*filter.MaxAmount) {
		return false
	}
	return true
}

// SummarizeLoans filters loans and returns their summaries in input order.
func SummarizeLoans(loans []*domain.Loan, filter domain.LoanFilter) []domain.CustomerLoan {
	summaries := make([]domain.CustomerLoan, 0, len(loans))
	for _, loan := range loans {
		if Matches(filter, loan) {
			summaries = append(summaries, SummarizeLoan(loan))
		}
	}
	return summaries
}
