package database

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/employee_migration/internal/config"
	"github.com/locvowork/employee_migration/internal/domain"
	"github.com/locvowork/employee_migration/pkg/retry"
)

func TestDSN(t *testing.T) {
	driver, dsn, err := DSN(Config{Driver: config.DriverMySQL, Host: "db", Port: 3306, User: "root", Password: "secret", DBName: "employees"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", driver)
	assert.True(t, strings.HasPrefix(dsn, "root:secret@tcp(db:3306)/employees?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")

	driver, dsn, err = DSN(Config{Driver: config.DriverPostgres, Host: "db", Port: 5432, User: "u", Password: "p", DBName: "employees", SSLMode: "disable"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", driver)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=employees sslmode=disable", dsn)

	_, _, err = DSN(Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestNewSQLDB_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.db")
	db, err := NewSQLDB(context.Background(), Config{Driver: config.DriverSQLite, DBName: path}, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestNewSQLDB_ConnectionError(t *testing.T) {
	cfg := Config{
		Driver: config.DriverMySQL,
		Host:   "127.0.0.1",
		Port:   1,
		User:   "root",
		DBName: "employees",
		Retry:  retry.Policy{MaxRetries: 1, Backoff: time.Millisecond},
	}
	_, err := NewSQLDB(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)

	var ce *domain.ConnectionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, config.DriverMySQL, ce.Store)
}
