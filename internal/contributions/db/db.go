// Package db implements the storage and integrity layer of the contribution
// data model on top of GORM. Every write runs inside a transaction that
// checks the key and reference invariants before touching the tables.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/gartstein/contributions/internal/contributions/errors"
	"github.com/gartstein/contributions/internal/contributions/models"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	maxTxRetries = 5
)

type Repository struct {
	db          *gorm.DB
	logger      *zap.Logger
	txOpts      []*sql.TxOptions
	convenioRef models.ReferenceMode
	inTx        bool
}

type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Path is the SQLite database file, or ":memory:".
	Path string
	// ConvenioReference decides whether a worker's year must have a convenio row.
	ConvenioReference models.ReferenceMode
}

// NewRepository opens the configured database, applies the schema
// migrations and returns a ready Repository.
func NewRepository(cfg *Config, log *zap.Logger) (*Repository, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger: logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	var (
		dialector gorm.Dialector
		dialect   string
		txOpts    []*sql.TxOptions
	)
	switch cfg.Driver {
	case DriverPostgres, "":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		dialector = postgres.Open(dsn)
		dialect = "postgres"
		txOpts = []*sql.TxOptions{{Isolation: sql.LevelSerializable}}
	case DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.Path))
		dialect = "sqlite3"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if cfg.Driver == DriverSQLite {
		// One connection keeps ":memory:" databases alive and serialises writers.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := migrateSchema(sqlDB, dialect); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	mode := cfg.ConvenioReference
	if mode == "" {
		mode = models.ReferenceHard
	}

	return &Repository{
		db:          db,
		logger:      log.Named("repository"),
		txOpts:      txOpts,
		convenioRef: mode,
	}, nil
}

func sqliteDSN(path string) string {
	if path == "" {
		path = ":memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

// WithTransaction runs fn inside a single transaction. Calls made on a
// Repository that is already transactional reuse the open transaction.
// Serialization failures are retried with exponential backoff; any other
// error aborts immediately.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	op := func() error {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&Repository{
				db:          tx,
				logger:      r.logger,
				convenioRef: r.convenioRef,
				inTx:        true,
			})
		}, r.txOpts...)
		if err != nil && !isSerializationFailure(err) {
			return backoff.Permanent(err)
		}
		if err != nil {
			r.logger.Warn("retrying transaction after serialization failure", zap.Error(err))
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxTxRetries), ctx)
	return backoff.Retry(op, policy)
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// translate maps driver errors to the sentinel errors of the data model.
// onFK is returned for foreign key violations, whose meaning depends on
// whether the statement was an insert or a delete.
func translate(err error, onFK error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return e.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return e.ErrDuplicateKey
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return onFK
	}
	return err
}

func (r *Repository) exists(ctx context.Context, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(model).
		Where(query, args...).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) count(ctx context.Context, model interface{}, query string, args ...interface{}) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(model).Where(query, args...).Count(&count)
	return count, result.Error
}

func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// Ping checks that the database answers.
func (r *Repository) Ping(ctx context.Context) error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
