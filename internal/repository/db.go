package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to the database and applies pool settings. SQLite connections always
// begin write transactions immediately so concurrent writers queue on the database lock.
func Open(ctx context.Context, driver, dsn string, opts Options) (*sqlx.DB, error) {
	if driver == "sqlite3" {
		dsn = sqliteDSN(dsn)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return db, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_txlock=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_txlock=immediate"
	}
	return dsn + "?_txlock=immediate"
}

// Migrate creates the tables if they don't exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := postgresSchema
	if db.DriverName() == "sqlite3" {
		schema = sqliteSchema
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		surname VARCHAR(100) NOT NULL,
		credit_limit NUMERIC(19, 2) NOT NULL CHECK (credit_limit >= 0),
		used_credit_limit NUMERIC(19, 2) NOT NULL CHECK (used_credit_limit >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id UUID PRIMARY KEY,
		customer_id UUID NOT NULL REFERENCES customers(id),
		loan_amount NUMERIC(19, 2) NOT NULL,
		number_of_installments INTEGER NOT NULL,
		interest_rate NUMERIC(5, 4) NOT NULL,
		create_date TIMESTAMPTZ NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_customer_id ON loans(customer_id)`,
	`CREATE TABLE IF NOT EXISTS loan_installments (
		id UUID PRIMARY KEY,
		loan_id UUID NOT NULL REFERENCES loans(id),
		installment_number INTEGER NOT NULL,
		amount NUMERIC(19, 2) NOT NULL,
		paid_amount NUMERIC(19, 2) NOT NULL DEFAULT 0,
		due_date DATE NOT NULL,
		payment_date DATE,
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (loan_id, installment_number)
	)`,
}

// SQLite keeps decimals as TEXT so no precision is lost.
var sqliteSchema = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		surname TEXT NOT NULL,
		credit_limit TEXT NOT NULL,
		used_credit_limit TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		loan_amount TEXT NOT NULL,
		number_of_installments INTEGER NOT NULL,
		interest_rate TEXT NOT NULL,
		create_date TIMESTAMP NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_customer_id ON loans(customer_id)`,
	`CREATE TABLE IF NOT EXISTS loan_installments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans(id),
		installment_number INTEGER NOT NULL,
		amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL DEFAULT '0',
		due_date DATE NOT NULL,
		payment_date DATE,
		paid BOOLEAN NOT NULL DEFAULT 0,
		UNIQUE (loan_id, installment_number)
	)`,
}
