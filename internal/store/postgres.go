package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fda-apps/internal/db"
	"github.com/sells-group/fda-apps/internal/failure"
	"github.com/sells-group/fda-apps/internal/model"
)

var _ db.Pool = (*pgxpool.Pool)(nil)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool. An
// unreachable server is reported as failure.IOFailure.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, failure.New(failure.IOFailure, eris.Wrap(err, "postgres: create pool"))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, failure.New(failure.IOFailure, eris.Wrap(err, "postgres: ping"))
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS company (
	id        BIGINT PRIMARY KEY NOT NULL,
	applicant VARCHAR(250) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS application (
	bla_nda_number       BIGINT PRIMARY KEY,
	is_biologic          BOOLEAN,
	proprietary_name     VARCHAR(250),
	proper_name          VARCHAR(250),
	approval_type        VARCHAR(250),
	ref_proper_name      VARCHAR(250),
	ref_proprietary_name VARCHAR(250),
	supplement_no        BIGINT,
	license_no           BIGINT,
	exclusivity_date     TIMESTAMP,
	is_deleted           BOOLEAN,
	created_at           TIMESTAMP,
	updated_at           TIMESTAMP,
	applicant_id         BIGINT REFERENCES company(id)
);

CREATE TABLE IF NOT EXISTS link (
	self_id   BIGINT,
	parent_id BIGINT REFERENCES company(id)
);
`

// EnsureSchema creates the tables when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return db.Classify(eris.Wrap(err, "postgres: ensure schema"))
	}
	return nil
}

// Append loads each table with COPY, companies first. Each COPY is atomic;
// tables loaded before a failure stay.
func (s *PostgresStore) Append(ctx context.Context, companies []model.Applicant, apps []model.Application, links []model.Link) (*AppendResult, error) {
	res := &AppendResult{}
	var err error

	if res.Companies, err = db.CopyFrom(ctx, s.pool, TableCompany, model.CompanyColumns, companyRows(companies)); err != nil {
		return res, err
	}
	if res.Applications, err = db.CopyFrom(ctx, s.pool, TableApplication, model.ApplicationColumns, applicationRows(apps)); err != nil {
		return res, err
	}
	if res.Links, err = db.CopyFrom(ctx, s.pool, TableLink, model.LinkColumns, linkRows(links)); err != nil {
		return res, err
	}

	zap.L().Debug("postgres: append complete",
		zap.Int64("companies", res.Companies),
		zap.Int64("applications", res.Applications),
		zap.Int64("links", res.Links),
	)
	return res, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
