package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/loan-engine/internal/domain"
)

// Lookups that find nothing return sql.ErrNoRows.

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	// Create creates a new customer
	Create(ctx context.Context, customer *domain.Customer) error

	// GetByID retrieves a customer by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)

	// GetByIDForUpdate retrieves a customer and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Customer, error)

	// Update updates a customer's credit line
	Update(ctx context.Context, customer *domain.Customer) error
}

// LoanRepository defines the interface for loan and installment data operations.
// Loans are always returned with their installments ordered by installment number.
type LoanRepository interface {
	// Create creates a new loan together with its installments
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// GetByIDForUpdate retrieves a loan and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// ListByCustomerID retrieves all loans of a customer, oldest first
	ListByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*domain.Loan, error)

	// ListUnpaid retrieves every loan that is not fully paid
	ListUnpaid(ctx context.Context) ([]*domain.Loan, error)

	// Update updates a loan's paid flag
	Update(ctx context.Context, loan *domain.Loan) error

	// UpdateInstallments persists the payment state of the given installments
	UpdateInstallments(ctx context.Context, installments []*domain.Installment) error
}

// Transactor runs a unit of work atomically. Repositories called with the context
// passed to fn take part in the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
