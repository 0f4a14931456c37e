package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"query-advisor/internal/config"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB wraps gorm.DB with an underlying *sql.DB for pooling controls and Close.
type DB struct {
	Gorm    *gorm.DB
	SQL     *sql.DB
	Dialect string
	log     *slog.Logger
}

// New opens the database named by cfg.DatabaseURL. postgres:// and
// postgresql:// URLs use PostgreSQL; anything else is treated as a SQLite DSN
// (e.g. "file:query_advisor.db" or "file:test?mode=memory&cache=shared").
func New(cfg config.Config, log *slog.Logger) (*DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if log == nil {
		log = slog.Default()
	}

	dialector, dialect := dialectorFor(cfg.DatabaseURL)
	g, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := g.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	if dialect == "postgres" {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(60 * time.Minute)
	} else {
		// SQLite allows a single writer; one connection also keeps a shared
		// in-memory database alive for the life of the pool.
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("database opened", "dialect", dialect)
	return &DB{Gorm: g, SQL: sqlDB, Dialect: dialect, log: log}, nil
}

func dialectorFor(dsn string) (gorm.Dialector, string) {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), "postgres"
	}
	return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), "sqlite"
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return gormlogger.Info
	case "warn", "warning", "info":
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

// Ping verifies the connection is usable; backs the readiness probe.
func (d *DB) Ping(ctx context.Context) error {
	if d == nil || d.SQL == nil {
		return fmt.Errorf("database not configured")
	}
	return d.SQL.PingContext(ctx)
}

// Close closes the underlying sql.DB.
func (d *DB) Close() error {
	if d == nil || d.SQL == nil {
		return nil
	}
	return d.SQL.Close()
}
