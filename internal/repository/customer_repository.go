package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/loan-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type customerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	q := executor(ctx, r.db)
	query := q.Rebind(`
		INSERT INTO customers (id, name, surname, credit_limit, used_credit_limit)
		VALUES (?, ?, ?, ?, ?)
	`)

	_, err := q.ExecContext(ctx, query,
		customer.ID,
		customer.Name,
		customer.Surname,
		customer.CreditLimit,
		customer.UsedCreditLimit,
	)

	return err
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return r.get(ctx, id, false)
}

func (r *customerRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return r.get(ctx, id, true)
}

func (r *customerRepository) get(ctx context.Context, id uuid.UUID, lock bool) (*domain.Customer, error) {
	q := executor(ctx, r.db)
	query := `
		SELECT id, name, surname, credit_limit, used_credit_limit
		FROM customers
		WHERE id = ?`
	if lock {
		query = forUpdate(q, query)
	}

	var customer domain.Customer
	if err := sqlx.GetContext(ctx, q, &customer, q.Rebind(query), id); err != nil {
		return nil, err
	}

	return &customer, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	q := executor(ctx, r.db)
	query := q.Rebind(`
		UPDATE customers
		SET name = ?, surname = ?, credit_limit = ?, used_credit_limit = ?
		WHERE id = ?
	`)

	_, err := q.ExecContext(ctx, query,
		customer.Name,
		customer.Surname,
		customer.CreditLimit,
		customer.UsedCreditLimit,
		customer.ID,
	)

	return err
}
