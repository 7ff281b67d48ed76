package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fda-apps/internal/failure"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "company", []string{"id", "applicant"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"company"}, []string{"id", "applicant"}).WillReturnResult(3)

	rows := [][]any{{int64(1), "Acme"}, {int64(2), "Acme Inc"}, {int64(3), "Zenith"}}
	n, err := CopyFrom(context.Background(), mock, "company", []string{"id", "applicant"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_UniqueViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"company"}, []string{"id", "applicant"}).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"company_applicant_key\""})

	_, err = CopyFrom(context.Background(), mock, "company", []string{"id", "applicant"}, [][]any{{int64(1), "Acme"}})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.ConstraintViolation))
	assert.Contains(t, err.Error(), "COPY INTO company")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_OtherError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"link"}, []string{"self_id", "parent_id"}).WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyFrom(context.Background(), mock, "link", []string{"self_id", "parent_id"}, [][]any{{int64(1), int64(1)}})
	require.Error(t, err)
	assert.Equal(t, failure.Unknown, failure.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		code string
		want failure.Kind
	}{
		{"23505", failure.ConstraintViolation},
		{"23503", failure.ConstraintViolation},
		{"23502", failure.ConstraintViolation},
		{"08006", failure.IOFailure},
		{"42601", failure.Unknown},
		{"", failure.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := Classify(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: tt.code}))
			assert.Equal(t, tt.want, failure.KindOf(err))
		})
	}
	assert.NoError(t, Classify(nil))
}
