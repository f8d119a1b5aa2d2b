package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// SeedPreset names a source dataset size.
type SeedPreset string

const (
	PresetSmall  SeedPreset = "small"
	PresetMedium SeedPreset = "medium"
	PresetLarge  SeedPreset = "large"
)

// GetPresetConfig returns the number of employees for a preset
func GetPresetConfig(preset SeedPreset) int {
	switch preset {
	case PresetSmall:
		return 100
	case PresetLarge:
		return 10000
	default:
		return 1000
	}
}

var (
	seedDepartments = [][2]string{
		{"d001", "Marketing"}, {"d002", "Finance"}, {"d003", "Human Resources"},
		{"d004", "Production"}, {"d005", "Development"}, {"d006", "Quality Management"},
		{"d007", "Sales"}, {"d008", "Research"}, {"d009", "Customer Service"},
	}
	seedTitles = []string{"Staff", "Senior Staff", "Engineer", "Senior Engineer", "Assistant Engineer", "Technique Leader"}
	seedFirst  = []string{"Georgi", "Bezalel", "Parto", "Chirstian", "Kyoichi", "Anneke", "Tzvetan", "Saniya", "Sumant", "Duangkaew"}
	seedLast   = []string{"Facello", "Simmel", "Bamford", "Koblick", "Maliniak", "Preusig", "Zielinski", "Kalloufi", "Peac", "Piveteau"}
)

// sourceSchema uses column types accepted by both MySQL and SQLite.
var sourceSchema = []string{
	`CREATE TABLE IF NOT EXISTS employees (emp_no INT NOT NULL, birth_date DATE, first_name VARCHAR(14), last_name VARCHAR(16), gender CHAR(1), hire_date DATE)`,
	`CREATE TABLE IF NOT EXISTS departments (dept_no CHAR(4) NOT NULL, dept_name VARCHAR(40))`,
	`CREATE TABLE IF NOT EXISTS dept_emp (emp_no INT NOT NULL, dept_no CHAR(4), from_date DATE, to_date DATE)`,
	`CREATE TABLE IF NOT EXISTS dept_manager (emp_no INT NOT NULL, dept_no CHAR(4), from_date DATE, to_date DATE)`,
	`CREATE TABLE IF NOT EXISTS salaries (emp_no INT NOT NULL, salary INT, from_date DATE, to_date DATE)`,
	`CREATE TABLE IF NOT EXISTS titles (emp_no INT NOT NULL, title VARCHAR(50), from_date DATE, to_date DATE)`,
}

// SourceSeeder fills a MySQL or SQLite source with a synthetic employees dataset for local runs.
type SourceSeeder struct {
	db  *sql.DB
	log zerolog.Logger
	rnd *rand.Rand
}

func NewSourceSeeder(db *sql.DB, log zerolog.Logger, seed int64) *SourceSeeder {
	return &SourceSeeder{db: db, log: log, rnd: rand.New(rand.NewSource(seed))}
}

// SeedStats counts the rows written per table.
type SeedStats map[string]int

// SeedData creates the source tables when missing and inserts numEmployees employees with their history.
func (s *SourceSeeder) SeedData(ctx context.Context, numEmployees int) (SeedStats, error) {
	start := time.Now()
	for _, stmt := range sourceSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create table: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stats := make(SeedStats)
	insert := func(table, query string, args ...interface{}) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
		stats[table]++
		return nil
	}

	for _, d := range seedDepartments {
		if err := insert("departments", `INSERT INTO departments (dept_no, dept_name) VALUES (?, ?)`, d[0], d[1]); err != nil {
			return nil, err
		}
	}

	managed := make(map[string]bool)
	for i := 0; i < numEmployees; i++ {
		empNo := 10001 + i
		birth := s.randomDate(1952, 1965)
		hire := s.randomDate(1985, 1999)
		gender := "M"
		if s.rnd.Intn(2) == 0 {
			gender = "F"
		}
		err := insert("employees",
			`INSERT INTO employees (emp_no, birth_date, first_name, last_name, gender, hire_date) VALUES (?, ?, ?, ?, ?, ?)`,
			empNo, birth.Format("2006-01-02"), seedFirst[s.rnd.Intn(len(seedFirst))], seedLast[s.rnd.Intn(len(seedLast))], gender, hire.Format("2006-01-02"))
		if err != nil {
			return nil, err
		}

		dept := seedDepartments[s.rnd.Intn(len(seedDepartments))][0]
		periods := s.periods(hire, s.rnd.Intn(4)+1)
		for j, p := range periods {
			if err := insert("salaries", `INSERT INTO salaries (emp_no, salary, from_date, to_date) VALUES (?, ?, ?, ?)`,
				empNo, 40000+s.rnd.Intn(60000)+j*1500, p[0], p[1]); err != nil {
				return nil, err
			}
		}
		if err := insert("titles", `INSERT INTO titles (emp_no, title, from_date, to_date) VALUES (?, ?, ?, ?)`,
			empNo, seedTitles[s.rnd.Intn(len(seedTitles))], periods[0][0], periods[len(periods)-1][1]); err != nil {
			return nil, err
		}
		if err := insert("dept_emp", `INSERT INTO dept_emp (emp_no, dept_no, from_date, to_date) VALUES (?, ?, ?, ?)`,
			empNo, dept, periods[0][0], periods[len(periods)-1][1]); err != nil {
			return nil, err
		}
		if !managed[dept] {
			managed[dept] = true
			if err := insert("dept_manager", `INSERT INTO dept_manager (emp_no, dept_no, from_date, to_date) VALUES (?, ?, ?, ?)`,
				empNo, dept, periods[0][0], periods[len(periods)-1][1]); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.log.Info().Interface("rows", stats).Dur("elapsed", time.Since(start)).Msg("source seeded")
	return stats, nil
}

// ClearData deletes every row of the source tables.
func (s *SourceSeeder) ClearData(ctx context.Context) error {
	for _, table := range []string{"titles", "salaries", "dept_manager", "dept_emp", "departments", "employees"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}
	s.log.Info().Msg("source cleared")
	return nil
}

func (s *SourceSeeder) randomDate(fromYear, toYear int) time.Time {
	start := time.Date(fromYear, 1, 1, 0, 0, 0, 0, time.UTC)
	days := (toYear - fromYear + 1) * 365
	return start.AddDate(0, 0, s.rnd.Intn(days))
}

// periods splits the time since hire into n consecutive yearly intervals. The last one stays open.
func (s *SourceSeeder) periods(hire time.Time, n int) [][2]interface{} {
	out := make([][2]interface{}, n)
	from := hire
	for i := 0; i < n; i++ {
		to := from.AddDate(1, 0, 0)
		out[i] = [2]interface{}{from.Format("2006-01-02"), to.Format("2006-01-02")}
		from = to
	}
	out[n-1][1] = "9999-01-01"
	return out
}
