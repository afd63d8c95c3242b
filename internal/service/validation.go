package service

import (
	"strings"

	"github.com/segyhp/loan-engine/internal/domain"
	customError "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	// ValidInstallmentCounts are the only loan terms offered, in months.
	ValidInstallmentCounts = []int{6, 9, 12, 24}

	MinInterestRate = decimal.RequireFromString("0.1")
	MaxInterestRate = decimal.RequireFromString("0.5")
)

// RatePlaces is the number of fractional digits an interest rate may carry.
const RatePlaces = 4

// ValidateLoanRequest rejects a malformed loan request. Checks run in a fixed order:
// installment count, interest rate, amount. Rates carry at most 4 decimal places and
// amounts at most 2, matching what the store keeps.
func ValidateLoanRequest(amount, interestRate decimal.Decimal, numberOfInstallments int) error {
	if !isValidInstallmentCount(numberOfInstallments) {
		return customError.WrapInvalidInstallmentCount(numberOfInstallments, ValidInstallmentCounts)
	}

	if interestRate.LessThan(MinInterestRate) || interestRate.GreaterThan(MaxInterestRate) {
		return customError.WrapInterestRateOutOfRange(interestRate.String(), MinInterestRate.String(), MaxInterestRate.String())
	}
	if !utils.FitsPlaces(interestRate, RatePlaces) {
		return customError.WrapInvalidPrecision("interest rate", interestRate.String(), RatePlaces)
	}

	if !amount.IsPositive() {
		return customError.WrapNonPositiveAmount(amount.String())
	}
	if !utils.FitsPlaces(amount, utils.MoneyPlaces) {
		return customError.WrapInvalidPrecision("amount", amount.String(), utils.MoneyPlaces)
	}

	return nil
}

func isValidInstallmentCount(n int) bool {
	for _, valid := range ValidInstallmentCounts {
		if n == valid {
			return true
		}
	}
	return false
}

// ValidateCustomerRequest checks the credit line of a new customer.
func ValidateCustomerRequest(req *domain.CreateCustomerRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Surname) == "" {
		return customError.WrapInvalidCustomer("name and surname are required")
	}
	if req.CreditLimit.IsNegative() {
		return customError.WrapInvalidCustomer("credit limit must not be negative")
	}
	if req.UsedCreditLimit.IsNegative() {
		return customError.WrapInvalidCustomer("used credit limit must not be negative")
	}
	if !utils.FitsPlaces(req.CreditLimit, utils.MoneyPlaces) || !utils.FitsPlaces(req.UsedCreditLimit, utils.MoneyPlaces) {
		return customError.WrapInvalidCustomer("credit limits must have at most 2 decimal places")
	}
	if req.UsedCreditLimit.GreaterThan(req.CreditLimit) {
		return customError.WrapInvalidCustomer("used credit limit must not exceed credit limit")
	}
	return nil
}
