package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/locvowork/employee_migration/internal/config"
	"github.com/locvowork/employee_migration/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// every connection of an in-memory sqlite database is a separate database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE titles (emp_no INTEGER, title TEXT, from_date TEXT, to_date TEXT);
		INSERT INTO titles VALUES (10002, 'Staff', '1996-08-03', '9999-01-01');
		INSERT INTO titles VALUES (10001, 'Senior Engineer', '1986-06-26', NULL);
		INSERT INTO titles VALUES (10001, 'Engineer', '1985-01-01', '1986-06-26');
	`)
	require.NoError(t, err)
	return db
}

func TestSQLSourceReader_Fetch(t *testing.T) {
	db := newTestDB(t)
	reader := NewSQLSourceReader(db, zerolog.Nop(), 0)
	defer reader.Close()

	rows, err := reader.Fetch(context.Background(), "SELECT * FROM titles")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, int64(10002), rows[0]["emp_no"])
	assert.Equal(t, "Senior Engineer", rows[1]["title"])
	assert.Equal(t, "Engineer", rows[2]["title"])
	assert.Nil(t, rows[1]["to_date"])
	assert.Equal(t, "1985-01-01", rows[2]["from_date"])
}

func TestSQLSourceReader_FetchEmpty(t *testing.T) {
	db := newTestDB(t)
	reader := NewSQLSourceReader(db, zerolog.Nop(), 0)
	defer reader.Close()

	rows, err := reader.Fetch(context.Background(), "SELECT * FROM titles WHERE emp_no = 0")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLSourceReader_QueryError(t *testing.T) {
	db := newTestDB(t)
	reader := NewSQLSourceReader(db, zerolog.Nop(), 0)
	defer reader.Close()

	_, err := reader.Fetch(context.Background(), "SELECT * FROM salaries")
	require.Error(t, err)

	var qe *domain.SourceQueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "SELECT * FROM salaries", qe.Query)
}

func TestSQLSourceReader_Close(t *testing.T) {
	db := newTestDB(t)
	reader := NewSQLSourceReader(db, zerolog.Nop(), 0)
	require.NoError(t, reader.Close())

	_, err := reader.Fetch(context.Background(), "SELECT * FROM titles")
	assert.Error(t, err)
}

func TestTableQueries(t *testing.T) {
	queries := TableQueries(map[string]config.TableOverride{
		domain.TableTitles: {Table: "hr.titles", OrderBy: []string{"emp_no", "from_date"}},
	})

	require.Len(t, queries, len(domain.SourceTables))
	assert.Equal(t, "SELECT * FROM employees", queries[domain.TableEmployees])
	assert.Equal(t, "SELECT * FROM dept_emp", queries[domain.TableDeptEmp])
	assert.Equal(t, "SELECT * FROM hr.titles ORDER BY emp_no, from_date", queries[domain.TableTitles])
}
