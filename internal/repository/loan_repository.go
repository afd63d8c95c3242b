package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/loan-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

const loanColumns = `id, customer_id, loan_amount, number_of_installments, interest_rate, create_date, paid`

const installmentColumns = `id, loan_id, installment_number, amount, paid_amount, due_date, payment_date, paid`

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	q := executor(ctx, r.db)
	query := q.Rebind(`
		INSERT INTO loans (` + loanColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := q.ExecContext(ctx, query,
		loan.ID,
		loan.CustomerID,
		loan.LoanAmount,
		loan.NumberOfInstallments,
		loan.InterestRate,
		loan.CreateDate,
		loan.Paid,
	)
	if err != nil {
		return err
	}

	return r.createInstallments(ctx, q, loan.Installments)
}

func (r *loanRepository) createInstallments(ctx context.Context, q sqlx.ExtContext, installments []*domain.Installment) error {
	query := q.Rebind(`
		INSERT INTO loan_installments (` + installmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)

	for _, installment := range installments {
		_, err := q.ExecContext(ctx, query,
			installment.ID,
			installment.LoanID,
			installment.Number,
			installment.Amount,
			installment.PaidAmount,
			installment.DueDate,
			installment.PaymentDate,
			installment.Paid,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, id, false)
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, id, true)
}

func (r *loanRepository) get(ctx context.Context, id uuid.UUID, lock bool) (*domain.Loan, error) {
	q := executor(ctx, r.db)
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = ?`
	if lock {
		query = forUpdate(q, query)
	}

	var loan domain.Loan
	if err := sqlx.GetContext(ctx, q, &loan, q.Rebind(query), id); err != nil {
		return nil, err
	}

	loans := []*domain.Loan{&loan}
	if err := r.attachInstallments(ctx, q, loans); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) ListByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*domain.Loan, error) {
	q := executor(ctx, r.db)
	query := q.Rebind(`
		SELECT ` + loanColumns + `
		FROM loans
		WHERE customer_id = ?
		ORDER BY create_date, id
	`)

	return r.list(ctx, q, query, customerID)
}

func (r *loanRepository) ListUnpaid(ctx context.Context) ([]*domain.Loan, error) {
	q := executor(ctx, r.db)
	query := q.Rebind(`
		SELECT ` + loanColumns + `
		FROM loans
		WHERE paid = ?
		ORDER BY create_date, id
	`)

	return r.list(ctx, q, query, false)
}

func (r *loanRepository) list(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	if err := sqlx.SelectContext(ctx, q, &loans, query, args...); err != nil {
		return nil, err
	}

	if err := r.attachInstallments(ctx, q, loans); err != nil {
		return nil, err
	}

	return loans, nil
}

// attachInstallments loads the installments of all loans in one query.
func (r *loanRepository) attachInstallments(ctx context.Context, q sqlx.ExtContext, loans []*domain.Loan) error {
	if len(loans) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Loan, len(loans))
	ids := make([]uuid.UUID, 0, len(loans))
	for _, loan := range loans {
		loan.Installments = []*domain.Installment{}
		byID[loan.ID] = loan
		ids = append(ids, loan.ID)
	}

	query, args, err := sqlx.In(`
		SELECT `+installmentColumns+`
		FROM loan_installments
		WHERE loan_id IN (?)
		ORDER BY loan_id, installment_number
	`, ids)
	if err != nil {
		return err
	}

	var installments []*domain.Installment
	if err := sqlx.SelectContext(ctx, q, &installments, q.Rebind(query), args...); err != nil {
		return err
	}

	for _, installment := range installments {
		if loan, ok := byID[installment.LoanID]; ok {
			loan.Installments = append(loan.Installments, installment)
		}
	}

	return nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	q := executor(ctx, r.db)
	query := q.Rebind(`
		UPDATE loans
		SET paid = ?
		WHERE id = ?
	`)

	_, err := q.ExecContext(ctx, query, loan.Paid, loan.ID)
	return err
}

func (r *loanRepository) UpdateInstallments(ctx context.Context, installments []*domain.Installment) error {
	q := executor(ctx, r.db)
	query := q.Rebind(`
		UPDATE loan_installments
		SET paid_amount = ?, payment_date = ?, paid = ?
		WHERE id = ?
	`)

	for _, installment := range installments {
		_, err := q.ExecContext(ctx, query,
			installment.PaidAmount,
			installment.PaymentDate,
			installment.Paid,
			installment.ID,
		)
		if err != nil {
			return err
		}
	}

	return nil
}
