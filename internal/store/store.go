// Package store creates the company, application and link tables and
// appends loaded rows to them. SQLite and Postgres backends share one
// interface and one error taxonomy.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fda-apps/internal/model"
)

// Table names. The link table is created after company because its parent
// column references company(id).
const (
	TableCompany     = "company"
	TableApplication = "application"
	TableLink        = "link"
)

// Store defines the persistence interface for the loader.
type Store interface {
	// EnsureSchema creates the three tables when absent. Existing tables
	// are left untouched.
	EnsureSchema(ctx context.Context) error

	// Append inserts companies, then applications, then links. Rows are
	// never updated; a duplicate key or dangling reference fails with
	// failure.ConstraintViolation.
	Append(ctx context.Context, companies []model.Applicant, apps []model.Application, links []model.Link) (*AppendResult, error)

	Close() error
}

// AppendResult reports rows written per table.
type AppendResult struct {
	Companies    int64 `json:"companies"`
	Applications int64 `json:"applications"`
	Links        int64 `json:"links"`
}

// Config selects and addresses a backend.
type Config struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// DefaultSQLitePath is the database file used when none is configured.
const DefaultSQLitePath = "FDA-apps.db"

// Open returns the backend named by cfg.Driver. An empty driver means sqlite.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
		path := cfg.DatabaseURL
		if path == "" {
			path = DefaultSQLitePath
		}
		return NewSQLite(path)
	case "postgres", "postgresql", "pgx":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver requires store.database_url")
		}
		return NewPostgres(ctx, cfg.DatabaseURL, &cfg.Pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q (valid: sqlite, postgres)", cfg.Driver)
	}
}

func companyRows(companies []model.Applicant) [][]any {
	rows := make([][]any, len(companies))
	for i, c := range companies {
		rows[i] = []any{c.ID, c.Name}
	}
	return rows
}

func applicationRows(apps []model.Application) [][]any {
	rows := make([][]any, len(apps))
	for i := range apps {
		rows[i] = apps[i].Values()
	}
	return rows
}

func linkRows(links []model.Link) [][]any {
	rows := make([][]any, len(links))
	for i, l := range links {
		rows[i] = []any{l.SelfID, l.ParentID}
	}
	return rows
}
