package store

import (
	"context"

	perr "shiftsync/internal/platform/errors"
)

// Exec runs a write and returns the number of affected rows
func Exec(ctx context.Context, q RowQuerier, sql string, args ...any) (int64, error) {
	ct, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// ExecOne runs a write and asserts exactly one row was affected
func ExecOne(ctx context.Context, q RowQuerier, sql string, args ...any) error {
	n, err := Exec(ctx, q, sql, args...)
	if err != nil {
		return err
	}
	if n != 1 {
		return perr.Newf(perr.ErrorCodeNotFound, "expected exactly one row affected, got %d", n)
	}
	return nil
}
