// Package database opens the shared connection pool.
package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fastfood-labs/order_service/internal/config"
)

const pingTimeout = 5 * time.Second

// Credentials identify the database to connect to. They come either from
// configuration or from the secret vault.
type Credentials struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

// CredentialsFromConfig extracts credentials from the database section.
func CredentialsFromConfig(cfg config.DatabaseConfig) Credentials {
	return Credentials{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: cfg.Name,
		Username: cfg.User,
		Password: cfg.Password,
	}
}

// DSN renders the driver-specific connection string.
func DSN(driver string, creds Credentials, sslMode string) (string, error) {
	switch driver {
	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = creds.Username
		mc.Passwd = creds.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(creds.Host, strconv.Itoa(creds.Port))
		mc.DBName = creds.Database
		mc.ParseTime = true
		mc.CheckConnLiveness = true
		mc.MultiStatements = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil
	case config.DriverPostgres:
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(creds.Username, creds.Password),
			Host:     net.JoinHostPort(creds.Host, strconv.Itoa(creds.Port)),
			Path:     "/" + creds.Database,
			RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("database: unsupported driver %q", driver)
	}
}

// Open builds the pool from cfg using creds, applies the pool limits and
// verifies connectivity.
func Open(ctx context.Context, cfg config.DatabaseConfig, creds Credentials) (*sqlx.DB, error) {
	dsn, err := DSN(cfg.Driver, creds, cfg.SSLMode)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.Driver, err)
	}
	Configure(db, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: ping %s at %s: %w", cfg.Driver, creds.Host, err)
	}
	return db, nil
}

// Configure applies the pool limits in cfg to db.
func Configure(db *sqlx.DB, cfg config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}
