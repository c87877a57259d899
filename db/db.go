package db

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sorenmh/infrastructure-shared/soketi-app-api/config"
)

var (
	//go:embed schema_mysql.sql
	mysqlSchema string

	//go:embed schema_sqlite.sql
	sqliteSchema string
)

// Database is the process-wide connection pool. It is opened once at start
// and shared by reference with every repository.
type Database struct {
	*sqlx.DB
	driver string
}

// Open connects to the database described by cfg and verifies the
// connection. The schema is expected to exist already; see EnsureSchema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == config.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.ConnectionLimit > 0 {
		sqlDB.SetMaxOpenConns(cfg.ConnectionLimit)
		sqlDB.SetMaxIdleConns(cfg.ConnectionLimit)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: sqlDB, driver: cfg.Driver}, nil
}

// New wraps an existing connection, e.g. one created by sqlmock.
func New(sqlDB *sqlx.DB) *Database {
	return &Database{DB: sqlDB, driver: sqlDB.DriverName()}
}

// DSN builds the driver-specific data source name for cfg.
func DSN(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Params = cfg.Params
		return mc.FormatDSN(), nil
	case config.DriverSQLite:
		return cfg.Path + "?_busy_timeout=5000", nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// Driver returns the database/sql driver name in use.
func (d *Database) Driver() string {
	return d.driver
}

// EnsureSchema creates the apps table when it does not exist. The service
// never calls it on start; it backs the init-schema command and tests.
func (d *Database) EnsureSchema(ctx context.Context) error {
	schema := mysqlSchema
	if d.driver == config.DriverSQLite {
		schema = sqliteSchema
	}
	if _, err := d.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
