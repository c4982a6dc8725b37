package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ConstraintError is a PostgreSQL integrity violation (SQLSTATE class 23).
// Its message omits the SQLSTATE suffix so it reads well as a row error.
type ConstraintError struct {
	Op         string
	Constraint string
	Err        *pgconn.PgError
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err.Message)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// translate wraps err with op, turning integrity violations into
// ConstraintError.
func translate(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) == 5 && pgErr.Code[:2] == "23" {
		return &ConstraintError{Op: op, Constraint: pgErr.ConstraintName, Err: pgErr}
	}
	return fmt.Errorf("%s: %w", op, err)
}
