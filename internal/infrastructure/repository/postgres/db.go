package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const schemaLockID int64 = 2026101601

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables used by the service.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	age INTEGER NOT NULL,
	sex TEXT NOT NULL,
	marital_status TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	father_name TEXT NOT NULL DEFAULT '',
	mother_name TEXT NOT NULL DEFAULT '',
	annual_income BIGINT,
	location TEXT NOT NULL DEFAULT '',
	family_size INTEGER,
	residence_type TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	is_differently_abled BOOLEAN NOT NULL DEFAULT FALSE,
	disability_percentage INTEGER CHECK (disability_percentage BETWEEN 0 AND 100),
	is_minority BOOLEAN NOT NULL DEFAULT FALSE,
	is_student BOOLEAN NOT NULL DEFAULT FALSE,
	employment_status TEXT NOT NULL DEFAULT '',
	is_government_employee BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	document_type TEXT NOT NULL,
	file_path TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL,
	is_verified BOOLEAN NOT NULL DEFAULT FALSE,
	confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	errors JSONB NOT NULL DEFAULT '[]'::jsonb,
	UNIQUE (user_id, document_type)
);

CREATE TABLE IF NOT EXISTS bookmarks (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	scheme_id INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, scheme_id)
);

CREATE INDEX IF NOT EXISTS idx_bookmarks_user_created ON bookmarks(user_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
