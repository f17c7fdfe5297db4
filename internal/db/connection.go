package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// ErrUnsupportedDriver is returned when the configured storage driver is unknown.
var ErrUnsupportedDriver = errors.New("unsupported storage driver")

// Driver names accepted in Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds database configuration
type Config struct {
	Driver      string
	BaseDir     string
	File        string
	BusyTimeout time.Duration

	Postgres PostgresConfig
}

// PostgresConfig holds connection settings for the postgres driver.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Path returns the SQLite database file location.
func (c Config) Path() string {
	return filepath.Join(c.BaseDir, c.File)
}

// Connection wraps the database handle and the SQL dialect it speaks.
type Connection struct {
	DB      *sql.DB
	Dialect Dialect
}

// NewConnection opens the configured database, verifies it and applies the
// embedded schema.
func NewConnection(ctx context.Context, config Config) (*Connection, error) {
	var (
		conn *Connection
		err  error
	)
	switch config.Driver {
	case DriverSQLite, "":
		conn, err = openSQLite(config)
	case DriverPostgres:
		conn, err = openPostgres(config.Postgres)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, config.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := conn.DB.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

func openSQLite(config Config) (*Connection, error) {
	if config.File == "" {
		config.File = DefaultConfig().File
	}
	if err := os.MkdirAll(config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	busy := config.BusyTimeout
	if busy <= 0 {
		busy = DefaultConfig().BusyTimeout
	}

	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", strconv.FormatInt(busy.Milliseconds(), 10))
	// writers take the lock at BEGIN so concurrent submissions queue instead of deadlocking
	params.Set("_txlock", "immediate")

	dsn := config.Path() + "?" + params.Encode()
	handle, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	log.Printf("[db] using sqlite database at %s", config.Path())
	return &Connection{DB: handle, Dialect: DialectSQLite}, nil
}

const (
	postgresMaxOpenConns = 5
	// the pgx migration driver keeps one connection checked out for the
	// life of the handle
	migrationConns = 1
)

func openPostgres(config PostgresConfig) (*Connection, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode,
	)

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	handle := stdlib.OpenDB(*connConfig)

	// Configure pool settings - more conservative to avoid connection issues
	handle.SetMaxOpenConns(postgresMaxOpenConns + migrationConns)
	handle.SetMaxIdleConns(1)
	handle.SetConnMaxLifetime(time.Minute * 30)
	handle.SetConnMaxIdleTime(time.Minute * 5)

	log.Printf("[db] using postgres database %s on %s:%d", config.DBName, config.Host, config.Port)
	return &Connection{DB: handle, Dialect: DialectPostgres}, nil
}

// Close closes the database handle
func (c *Connection) Close() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Printf("[db] close failed: %v", err)
		}
	}
}

// WithTx executes a function within a database transaction
func (c *Connection) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if err := tx.Rollback(); err != nil {
				log.Printf("[db] failed to rollback transaction: %v", err)
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DefaultConfig returns a default database configuration
func DefaultConfig() Config {
	return Config{
		Driver:      DriverSQLite,
		BaseDir:     "./data",
		File:        "driverlog.db",
		BusyTimeout: 5 * time.Second,
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "admin",
			DBName:   "driverlog",
			SSLMode:  "disable",
		},
	}
}
