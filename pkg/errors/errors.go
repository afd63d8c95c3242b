package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidInstallmentCount = errors.New("invalid number of installments")
	ErrInterestRateOutOfRange  = errors.New("interest rate out of range")
	ErrNonPositiveAmount       = errors.New("amount must be positive")
	ErrInvalidPrecision        = errors.New("too many decimal places")
	ErrInsufficientCreditLimit = errors.New("insufficient credit limit")
	ErrLoanAlreadyPaid         = errors.New("loan is already paid")
	ErrNoEligibleInstallments  = errors.New("no eligible installments")
	ErrPaymentExceedsCap       = errors.New("payment exceeds payable amount")
	ErrInvalidCustomer         = errors.New("invalid customer")

	// ErrInternal marks failures of the system rather than of the caller's input.
	ErrInternal = errors.New("internal error")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeCustomerNotFound        = "CUSTOMER_NOT_FOUND"
	ErrCodeLoanNotFound            = "LOAN_NOT_FOUND"
	ErrCodeInvalidInstallmentCount = "INVALID_INSTALLMENT_COUNT"
	ErrCodeInterestRateOutOfRange  = "INTEREST_RATE_OUT_OF_RANGE"
	ErrCodeNonPositiveAmount       = "NON_POSITIVE_AMOUNT"
	ErrCodeInvalidPrecision        = "INVALID_PRECISION"
	ErrCodeInsufficientCreditLimit = "INSUFFICIENT_CREDIT_LIMIT"
	ErrCodeLoanAlreadyPaid         = "LOAN_ALREADY_PAID"
	ErrCodeNoEligibleInstallments  = "NO_ELIGIBLE_INSTALLMENTS"
	ErrCodePaymentExceedsCap       = "PAYMENT_EXCEEDS_CAP"
	ErrCodeInvalidCustomer         = "INVALID_CUSTOMER"
	ErrCodeDatabaseError           = "DATABASE_ERROR"
	ErrCodeCacheError              = "CACHE_ERROR"
	ErrCodeLockError               = "LOCK_ERROR"
	ErrCodeLockNotAcquired         = "LOCK_NOT_ACQUIRED"
)

// internalError joins the system-failure marker with the underlying cause.
type internalError struct {
	cause error
}

func (e internalError) Error() string {
	if e.cause == nil {
		return ErrInternal.Error()
	}
	return e.cause.Error()
}

func (e internalError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrInternal}
	}
	return []error{ErrInternal, e.cause}
}

// IsBusiness reports whether err is a rejection of the caller's request, as opposed to
// a failure of the system.
func IsBusiness(err error) bool {
	var be *BusinessError
	return errors.As(err, &be) && !errors.Is(err, ErrInternal)
}

// IsInternal reports whether err is a system failure.
func IsInternal(err error) bool {
	return err != nil && !IsBusiness(err)
}

// CodeOf returns the BusinessError code carried by err, or an empty string.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func WrapCustomerNotFound(customerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeCustomerNotFound,
		fmt.Sprintf("Customer with ID %s not found", customerID),
		ErrNotFound,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrNotFound,
	)
}

func WrapInvalidInstallmentCount(count int, allowed []int) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidInstallmentCount,
		fmt.Sprintf("Number of installments %d must be one of %v", count, allowed),
		ErrInvalidInstallmentCount,
	)
}

func WrapInterestRateOutOfRange(rate, min, max string) *BusinessError {
	return NewBusinessError(
		ErrCodeInterestRateOutOfRange,
		fmt.Sprintf("Interest rate %s must be between %s and %s", rate, min, max),
		ErrInterestRateOutOfRange,
	)
}

func WrapNonPositiveAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeNonPositiveAmount,
		fmt.Sprintf("Amount %s must be positive", amount),
		ErrNonPositiveAmount,
	)
}

func WrapInvalidPrecision(field, value string, places int32) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPrecision,
		fmt.Sprintf("%s %s must have at most %d decimal places", field, value, places),
		ErrInvalidPrecision,
	)
}

func WrapInsufficientCreditLimit(customerID, requested, available string) *BusinessError {
	return NewBusinessError(
		ErrCodeInsufficientCreditLimit,
		fmt.Sprintf("Customer %s cannot borrow %s, available credit limit is %s", customerID, requested, available),
		ErrInsufficientCreditLimit,
	)
}

func WrapLoanAlreadyPaid(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadyPaid,
		fmt.Sprintf("Loan with ID %s is already paid", loanID),
		ErrLoanAlreadyPaid,
	)
}

func WrapNoEligibleInstallments(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNoEligibleInstallments,
		fmt.Sprintf("Loan with ID %s has no installments due within the payment window", loanID),
		ErrNoEligibleInstallments,
	)
}

func WrapPaymentExceedsCap(amount, maxPayable string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentExceedsCap,
		fmt.Sprintf("Payment amount %s exceeds the payable amount %s", amount, maxPayable),
		ErrPaymentExceedsCap,
	)
}

func WrapInvalidCustomer(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidCustomer,
		reason,
		ErrInvalidCustomer,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		internalError{cause: err},
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		internalError{cause: err},
	)
}

func WrapLockError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeLockError,
		"lock operation failed",
		internalError{cause: err},
	)
}

func WrapLockNotAcquired(key string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeLockNotAcquired,
		fmt.Sprintf("resource %s is busy, try again", key),
		internalError{cause: err},
	)
}
