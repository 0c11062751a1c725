package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kilianp07/orchestrator/core/logger"
	"github.com/kilianp07/orchestrator/core/orcherr"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and tunes the database connection.
type Config struct {
	Driver                 string `json:"driver"`
	DSN                    string `json:"dsn"`
	MaxOpenConns           int    `json:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `json:"conn_max_lifetime_seconds"`
	SlowQueryMS            int    `json:"slow_query_ms"`
	LogQueries             bool   `json:"log_queries"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.DSN == "" && c.Driver == DriverSQLite {
		c.DSN = "orchestrator.db"
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 2
	}
	if c.SlowQueryMS == 0 {
		c.SlowQueryMS = 200
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("store: unsupported driver %q", c.Driver)
	}
	if c.DSN == "" {
		return errors.New("store: dsn is required")
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return errors.New("store: connection limits must be positive")
	}
	return nil
}

// DB owns the gorm connection shared by the stores.
type DB struct {
	gorm *gorm.DB
}

// Open connects to the configured database and migrates the schema.
func Open(cfg Config, log logger.Logger) (*DB, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	}

	level := gormlogger.Warn
	if cfg.LogQueries {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger: gormlogger.New(printfWriter{log}, gormlogger.Config{
			SlowThreshold:             time.Duration(cfg.SlowQueryMS) * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		// SQLite has a single writer.
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetimeSeconds > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSeconds) * time.Second)
	}

	if err := db.AutoMigrate(&jobRecord{}, &lockRecord{}, &subscriptionRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Infof("connected to %s store", cfg.Driver)
	return &DB{gorm: db}, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Jobs returns the job store.
func (d *DB) Jobs() *JobStore { return &JobStore{db: d.gorm} }

// Locks returns the lock store.
func (d *DB) Locks() *LockStore { return &LockStore{db: d.gorm} }

// Subscriptions returns the subscription store.
func (d *DB) Subscriptions() *SubscriptionStore { return &SubscriptionStore{db: d.gorm} }

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type printfWriter struct{ log logger.Logger }

func (w printfWriter) Printf(format string, args ...any) {
	w.log.Debugf(format, args...)
}

// translate maps gorm errors onto the sentinels the core understands.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", orcherr.ErrConflict, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return orcherr.ErrNotFound
	}
	return err
}
