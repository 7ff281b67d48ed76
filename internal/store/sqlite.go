package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sells-group/fda-apps/internal/failure"
	"github.com/sells-group/fda-apps/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. The database file
// is guarded by an advisory lock so two loaders never write it at once.
type SQLiteStore struct {
	db   *sql.DB
	lock *flock.Flock
}

// NewSQLite opens a SQLite database at the given path, takes the sidecar
// lock and enables foreign key enforcement.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	var lock *flock.Flock
	if !isMemoryDSN(dsn) {
		lock = flock.New(lockPath(dsn))
		locked, err := lock.TryLock()
		if err != nil {
			return nil, failure.New(failure.IOFailure, eris.Wrapf(err, "sqlite: lock %s", lock.Path()))
		}
		if !locked {
			return nil, failure.Newf(failure.IOFailure, "sqlite: %s is locked by another process", dsn)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		unlock(lock)
		return nil, failure.New(failure.IOFailure, eris.Wrap(err, "sqlite: open"))
	}
	// Pragmas are per connection; one connection keeps them in force.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			unlock(lock)
			return nil, failure.New(failure.IOFailure, eris.Wrapf(err, "sqlite: exec %s", pragma))
		}
	}
	return &SQLiteStore{db: db, lock: lock}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS company (
	id        INTEGER PRIMARY KEY NOT NULL,
	applicant VARCHAR(250) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS application (
	bla_nda_number       INTEGER PRIMARY KEY,
	is_biologic          BOOLEAN,
	proprietary_name     VARCHAR(250),
	proper_name          VARCHAR(250),
	approval_type        VARCHAR(250),
	ref_proper_name      VARCHAR(250),
	ref_proprietary_name VARCHAR(250),
	supplement_no        INTEGER,
	license_no           INTEGER,
	exclusivity_date     TIMESTAMP,
	is_deleted           BOOLEAN,
	created_at           TIMESTAMP,
	updated_at           TIMESTAMP,
	applicant_id         INTEGER REFERENCES company(id)
);

CREATE TABLE IF NOT EXISTS link (
	self_id   INTEGER,
	parent_id INTEGER REFERENCES company(id)
);
`

// EnsureSchema creates the tables when absent.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return classifySQLite(eris.Wrap(err, "sqlite: ensure schema"))
	}
	return nil
}

// Append writes each table in its own transaction, companies first. A
// failure rolls back the table in progress; tables already committed stay.
func (s *SQLiteStore) Append(ctx context.Context, companies []model.Applicant, apps []model.Application, links []model.Link) (*AppendResult, error) {
	res := &AppendResult{}
	var err error

	if res.Companies, err = s.insertAll(ctx, TableCompany, model.CompanyColumns, companyRows(companies)); err != nil {
		return res, err
	}
	if res.Applications, err = s.insertAll(ctx, TableApplication, model.ApplicationColumns, applicationRows(apps)); err != nil {
		return res, err
	}
	if res.Links, err = s.insertAll(ctx, TableLink, model.LinkColumns, linkRows(links)); err != nil {
		return res, err
	}

	zap.L().Debug("sqlite: append complete",
		zap.Int64("companies", res.Companies),
		zap.Int64("applications", res.Applications),
		zap.Int64("links", res.Links),
	)
	return res, nil
}

func (s *SQLiteStore) insertAll(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, classifySQLite(eris.Wrapf(err, "sqlite: begin %s", table))
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, insertSQL(table, columns))
	if err != nil {
		return 0, classifySQLite(eris.Wrapf(err, "sqlite: prepare insert into %s", table))
	}
	defer stmt.Close() //nolint:errcheck

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, classifySQLite(eris.Wrapf(err, "sqlite: insert into %s row %d", table, i+1))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, classifySQLite(eris.Wrapf(err, "sqlite: commit %s", table))
	}
	return int64(len(rows)), nil
}

// Close releases the connection and the file lock.
func (s *SQLiteStore) Close() error {
	err := s.db.Close()
	unlock(s.lock)
	return err
}

func insertSQL(table string, columns []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), marks)
}

// classifySQLite tags constraint errors as ConstraintViolation and
// open/IO errors as IOFailure. Other errors pass through unchanged.
func classifySQLite(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return failure.New(failure.ConstraintViolation, err)
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL, sqlite3.SQLITE_READONLY:
			return failure.New(failure.IOFailure, err)
		}
		return err
	}
	if strings.Contains(err.Error(), "constraint failed") {
		return failure.New(failure.ConstraintViolation, err)
	}
	return err
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory") || strings.HasPrefix(dsn, "file::memory:")
}

// lockPath strips any URI prefix or query so the lock sits beside the file.
func lockPath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path + ".lock"
}

func unlock(lock *flock.Flock) {
	if lock == nil {
		return
	}
	if err := lock.Unlock(); err != nil {
		zap.L().Warn("sqlite: release lock", zap.String("path", lock.Path()), zap.Error(err))
	}
}
