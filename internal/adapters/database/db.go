package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/internal/adapters/config"
	"github.com/selivandex/fng-signal/pkg/logger"
)

// DB wraps one sqlx connection pool (Postgres or ClickHouse)
type DB struct {
	conn   *sqlx.DB
	driver string
}

// pool sizes a connection for one short run at a time
type pool struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
}

// New connects to the Postgres channel registry
func New(cfg *config.DatabaseConfig) (*DB, error) {
	db, err := connect("postgres", cfg.GetDSN(), pool{maxOpen: 5, maxIdle: 2, maxLifetime: 5 * time.Minute})
	if err != nil {
		return nil, err
	}

	logger.Info("database connection established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
	)

	return db, nil
}

// NewClickHouse connects to the ClickHouse candle store
func NewClickHouse(cfg *config.ClickHouseConfig) (*DB, error) {
	db, err := connect("clickhouse", cfg.GetDSN(), pool{maxOpen: 2, maxIdle: 1, maxLifetime: time.Hour})
	if err != nil {
		return nil, err
	}

	logger.Info("ClickHouse connection established",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
	)

	return db, nil
}

// connect opens and pings a pool; sqlx.Connect pings before returning
func connect(driver, dsn string, p pool) (*DB, error) {
	conn, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	conn.SetMaxOpenConns(p.maxOpen)
	conn.SetMaxIdleConns(p.maxIdle)
	conn.SetConnMaxLifetime(p.maxLifetime)

	return &DB{conn: conn, driver: driver}, nil
}

// Close closes the pool
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	logger.Info("closing database connection", zap.String("driver", db.driver))
	return db.conn.Close()
}

// Conn returns underlying *sql.DB (for migrations)
func (db *DB) Conn() *sql.DB {
	return db.conn.DB
}

// DB returns sqlx.DB for repositories
func (db *DB) DB() *sqlx.DB {
	return db.conn
}

// Health pings the pool within 2 seconds
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%s health check failed: %w", db.driver, err)
	}

	return nil
}
