package property

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// runner is satisfied by both *nap.DB and *sql.Tx, so properties can be
// written alongside other rows in one transaction.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Get decodes the property into value. A missing key leaves value untouched.
func Get(ctx context.Context, r runner, key string, value any) error {
	stmt, args := sq.Select("`value`").From("properties").Where(sq.Eq{"`key`": key}).MustSql()

	var raw []byte
	if err := r.QueryRowContext(ctx, stmt, args...).Scan(&raw); err == nil {
		return json.Unmarshal(raw, value)
	} else if errors.Is(err, sql.ErrNoRows) {
		return nil
	} else {
		return err
	}
}

// Set writes value as JSON, inside a transaction when r is one.
func Set(ctx context.Context, r runner, key string, value any) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	stmt, args := sq.Update("properties").
		Set("`value`", jsonValue).
		Set("`version`", sq.Expr("`version` + 1")).
		Where(sq.Eq{"`key`": key}).
		MustSql()
	res, err := r.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("failed to set property: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if n > 0 {
		return nil
	}

	stmt, args = sq.Insert("properties").Columns("`key`", "`value`").Values(key, jsonValue).MustSql()
	_, err = r.ExecContext(ctx, stmt, args...)
	return err
}

// Delete removes key; missing keys are not an error.
func Delete(ctx context.Context, r runner, key string) error {
	stmt, args := sq.Delete("properties").Where(sq.Eq{"`key`": key}).MustSql()
	_, err := r.ExecContext(ctx, stmt, args...)
	return err
}
