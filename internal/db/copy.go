package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fda-apps/internal/failure"
)

// CopyFrom bulk-inserts rows into table using the PostgreSQL COPY protocol.
// A COPY is a single statement, so a rejected row leaves the table untouched.
// Integrity violations are classified as failure.ConstraintViolation.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, Classify(eris.Wrapf(err, "db: COPY INTO %s", table))
	}
	return n, nil
}

// Classify tags err by its SQLSTATE: class 23 (integrity constraint
// violation) becomes ConstraintViolation, class 08 (connection exception)
// becomes IOFailure. Other errors are returned unchanged.
func Classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || len(pgErr.Code) < 2 {
		return err
	}
	switch pgErr.Code[:2] {
	case "23":
		return failure.New(failure.ConstraintViolation, err)
	case "08":
		return failure.New(failure.IOFailure, err)
	}
	return err
}
