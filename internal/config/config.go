package config

import (
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sells-group/fda-apps/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Input InputConfig  `yaml:"input" mapstructure:"input"`
	Fetch FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Store store.Config `yaml:"store" mapstructure:"store"`
	Log   LogConfig    `yaml:"log" mapstructure:"log"`
}

// InputConfig locates and describes the application table.
type InputConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	Encoding  string `yaml:"encoding" mapstructure:"encoding"`
	Sheet     string `yaml:"sheet" mapstructure:"sheet"`
	IDOrder   string `yaml:"id_order" mapstructure:"id_order"`
	TempDir   string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// DelimiterRune returns the single-character field delimiter. The literal
// "\t" is accepted for tab. Empty returns 0, leaving the choice to the
// file extension.
func (c InputConfig) DelimiterRune() (rune, error) {
	d := c.Delimiter
	if d == "" {
		return 0, nil
	}
	if d == `\t` || strings.EqualFold(d, "tab") {
		return '\t', nil
	}
	if utf8.RuneCountInString(d) != 1 {
		return 0, eris.Errorf("config: input.delimiter must be one character, got %q", d)
	}
	r, _ := utf8.DecodeRuneInString(d)
	return r, nil
}

// FetchConfig configures remote input downloads.
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Timeout returns TimeoutSecs as a duration.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// Load reads configuration from .env, an optional config file and the
// environment. An empty path searches for config.yaml in the working
// directory; a non-empty path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("FDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.path", "fda_purple_orange_books.csv")
	v.SetDefault("input.delimiter", "")
	v.SetDefault("input.encoding", "utf-8")
	v.SetDefault("input.sheet", "")
	v.SetDefault("input.id_order", "first_seen")
	v.SetDefault("input.temp_dir", os.TempDir())
	v.SetDefault("fetch.user_agent", "fda-apps/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 5.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", store.DefaultSQLitePath)
	v.SetDefault("store.pool.max_conns", 4)
	v.SetDefault("store.pool.min_conns", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is one of "ingest",
// "schema" or "link". Every problem found is reported at once.
func (c *Config) Validate(mode string) error {
	var errs []string
	needInput, needStore := false, false
	switch mode {
	case "ingest":
		needInput, needStore = true, true
	case "schema":
		needStore = true
	case "link":
		needInput = true
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if needInput {
		if strings.TrimSpace(c.Input.Path) == "" {
			errs = append(errs, "input.path is required")
		}
		if _, err := c.Input.DelimiterRune(); err != nil {
			errs = append(errs, "input.delimiter must be one character")
		}
		switch strings.ToLower(c.Input.IDOrder) {
		case "", "first_seen", "lexical":
		default:
			errs = append(errs, "input.id_order must be first_seen or lexical")
		}
		if c.Fetch.MaxRetries < 1 {
			errs = append(errs, "fetch.max_retries must be >= 1")
		}
		if c.Fetch.RatePerSec <= 0 {
			errs = append(errs, "fetch.rate_per_sec must be > 0")
		}
	}

	if needStore {
		switch strings.ToLower(c.Store.Driver) {
		case "", "sqlite", "sqlite3":
		case "postgres", "postgresql", "pgx":
			if c.Store.DatabaseURL == "" {
				errs = append(errs, "store.database_url is required for postgres")
			}
		default:
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger. When cfg.File is set, log
// entries are also written as JSON to a size-rotated file.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}

	if cfg.File != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, zapCfg.Level)
		logger = logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}

	zap.ReplaceGlobals(logger)

	return nil
}
