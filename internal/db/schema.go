package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// QueryRower is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Querier covers everything the repositories need from *sql.DB or *sql.Tx.
type Querier interface {
	QueryRower
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// HasTable reports whether table exists in the active schema (DATABASE()).
// A failed lookup is returned as an error, never as absence.
func HasTable(ctx context.Context, q QueryRower, table string) (bool, error) {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cek tabel %s: %w", table, err)
	}
	return name.Valid && name.String != "", nil
}

// HasColumn reports whether table.column exists in the active schema.
func HasColumn(ctx context.Context, q QueryRower, table, column string) (bool, error) {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND column_name = ?
		LIMIT 1
	`, table, column).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cek kolom %s.%s: %w", table, column, err)
	}
	return name.Valid && name.String != "", nil
}

// ColumnNullable reports whether table.column accepts NULL. A missing column is not nullable.
func ColumnNullable(ctx context.Context, q QueryRower, table, column string) (bool, error) {
	var nullable sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT is_nullable
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND column_name = ?
		LIMIT 1
	`, table, column).Scan(&nullable)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cek nullable %s.%s: %w", table, column, err)
	}
	return strings.EqualFold(strings.TrimSpace(nullable.String), "YES"), nil
}

// NullIfEmpty helps store optional strings as NULL instead of ''.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// NullString returns the pointed-to value or nil.
func NullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// NullID returns the pointed-to id or nil.
func NullID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
