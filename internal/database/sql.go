package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/locvowork/employee_migration/internal/config"
	"github.com/locvowork/employee_migration/internal/domain"
	"github.com/locvowork/employee_migration/pkg/retry"
)

// Config holds the source database connection settings
type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Retry    retry.Policy
}

// SourceConfig extracts the source database settings from the application config.
func SourceConfig(cfg *config.Config) Config {
	return Config{
		Driver:   cfg.SourceDriver,
		Host:     cfg.SourceHost,
		Port:     cfg.SourcePort,
		User:     cfg.SourceUser,
		Password: cfg.SourcePassword,
		DBName:   cfg.SourceDatabase,
		SSLMode:  cfg.SourceSSLMode,
		Retry:    retry.Policy{MaxRetries: cfg.SourceConnectRetries, Backoff: cfg.SourceRetryBackoff},
	}
}

// DSN returns the driver name and data source name for cfg.
func DSN(cfg Config) (string, string, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		mc.Loc = time.UTC
		return "mysql", mc.FormatDSN(), nil
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		return "postgres", dsn, nil
	case config.DriverSQLite:
		return "sqlite", cfg.DBName, nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// NewSQLDB opens the source database and pings it, retrying according to cfg.Retry.
func NewSQLDB(ctx context.Context, cfg Config, log zerolog.Logger) (*sql.DB, error) {
	driver, dsn, err := DSN(cfg)
	if err != nil {
		return nil, &domain.ConnectionError{Store: cfg.Driver, Err: err}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, &domain.ConnectionError{Store: cfg.Driver, Err: err}
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	attempt := 0
	err = retry.Do(ctx, cfg.Retry, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Str("driver", driver).Msg("source ping failed")
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, &domain.ConnectionError{Store: cfg.Driver, Err: err}
	}

	log.Info().Str("driver", driver).Str("database", cfg.DBName).Msg("connected to source database")
	return db, nil
}
