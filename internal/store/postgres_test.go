package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fda-apps/internal/failure"
	"github.com/sells-group/fda-apps/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS company`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchemaConnectionLost(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS company`).
		WillReturnError(&pgconn.PgError{Code: "08006", Message: "connection failure"})

	err := s.EnsureSchema(context.Background())
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.IOFailure))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendOrder(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{TableCompany}, model.CompanyColumns).
		WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{TableApplication}, model.ApplicationColumns).
		WillReturnResult(1)
	mock.ExpectCopyFrom(pgx.Identifier{TableLink}, model.LinkColumns).
		WillReturnResult(2)

	res, err := s.Append(context.Background(),
		[]model.Applicant{{ID: 1, Name: "Acme"}, {ID: 2, Name: "Acme Inc"}},
		[]model.Application{{BLANDANumber: 100, ApplicantID: 2}},
		[]model.Link{{SelfID: 1, ParentID: 1}, {SelfID: 2, ParentID: 1}},
	)
	require.NoError(t, err)
	assert.Equal(t, &AppendResult{Companies: 2, Applications: 1, Links: 2}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendEmpty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	res, err := s.Append(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, &AppendResult{}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendForeignKeyViolation(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{TableCompany}, model.CompanyColumns).
		WillReturnResult(1)
	mock.ExpectCopyFrom(pgx.Identifier{TableApplication}, model.ApplicationColumns).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})

	res, err := s.Append(context.Background(),
		[]model.Applicant{{ID: 1, Name: "Acme"}},
		[]model.Application{{BLANDANumber: 100, ApplicantID: 99}},
		[]model.Link{{SelfID: 1, ParentID: 1}},
	)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.ConstraintViolation))
	assert.Equal(t, int64(1), res.Companies)
	assert.Zero(t, res.Links)

	// The link COPY must not run after a failure.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendOtherError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{TableCompany}, model.CompanyColumns).
		WillReturnError(errors.New("boom"))

	_, err := s.Append(context.Background(), []model.Applicant{{ID: 1, Name: "Acme"}}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, failure.Unknown, failure.KindOf(err))
	assert.Contains(t, err.Error(), "COPY INTO company")
}

func TestPostgresStore_Close(t *testing.T) {
	called := false
	s := &PostgresStore{closeFn: func() { called = true }}
	require.NoError(t, s.Close())
	assert.True(t, called)
}
