// Package repository holds the row helpers shared by SQL-backed stores.
package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Row is a single result row, satisfied by *sql.Row and *sql.Rows.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result cursor, satisfied by *sql.Rows.
type Rows interface {
	Row
	Next() bool
	Err() error
	Close() error
}

// One scans a single-row result. The error is passed through MapError.
func One[T any](row Row, scan func(Row) (T, error), notFound, duplicate error) (T, error) {
	v, err := scan(row)
	return v, MapError(err, notFound, duplicate)
}

// Drain reads every row from rows through scan and closes rows.
func Drain[T any](rows Rows, scan func(Row) (T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Affected returns the number of rows changed by a statement, taking the
// statement's own error so it can wrap ExecContext directly.
func Affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MapError translates sql.ErrNoRows to notFound and a unique violation to
// duplicate. Any other error is returned as is.
func MapError(err error, notFound, duplicate error) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFound
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return duplicate
	default:
		return err
	}
}
