package service

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/locvowork/employee_migration/internal/domain"
	"github.com/locvowork/employee_migration/internal/index"
	"github.com/locvowork/employee_migration/internal/mapper"
)

// ManagementPolicy picks the management row to embed from an employee's dept_manager rows.
// It returns false when nothing should be embedded.
type ManagementPolicy func(rows []domain.Row) (domain.Row, bool)

// FirstWins embeds the first management row in source order and ignores the rest.
func FirstWins(rows []domain.Row) (domain.Row, bool) {
	if len(rows) == 0 {
		return nil, false
	}
	return rows[0], true
}

// Indexes are the child-table join indexes consumed by the Aggregator.
type Indexes struct {
	Titles      index.Index[int64]
	Salaries    index.Index[int64]
	DeptEmp     index.Index[int64]
	DeptManager index.Index[int64]
	Departments index.Lookup[string]
}

// SkippedRecord is a source row left out of the output.
type SkippedRecord struct {
	Table  string `json:"table"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// AggregateResult is the output of one aggregation pass.
type AggregateResult struct {
	Employees []domain.EmployeeDoc
	Skipped   []SkippedRecord
}

// Aggregator folds child rows into one document per employee
type Aggregator struct {
	log    zerolog.Logger
	policy ManagementPolicy
}

// NewAggregator creates an Aggregator. A nil policy means FirstWins.
func NewAggregator(log zerolog.Logger, policy ManagementPolicy) *Aggregator {
	if policy == nil {
		policy = FirstWins
	}
	return &Aggregator{log: log, policy: policy}
}

// Aggregate builds the employee documents in source order.
// Duplicate employee rows produce one document, placed at the first occurrence
// and built from the last one. A row that fails to map drops only that employee.
func (a *Aggregator) Aggregate(employees []domain.Row, idx Indexes) AggregateResult {
	res := AggregateResult{Employees: make([]domain.EmployeeDoc, 0, len(employees))}

	order := make([]int64, 0, len(employees))
	latest := make(map[int64]domain.Row, len(employees))
	for _, row := range employees {
		empNo, ok := index.IntKey(row["emp_no"])
		if !ok {
			res.Skipped = append(res.Skipped, a.skip(domain.TableEmployees, mapper.ToString(row["emp_no"]),
				&domain.FieldError{Field: "emp_no", Value: row["emp_no"], Reason: "not an integer"}))
			continue
		}
		if _, seen := latest[empNo]; !seen {
			order = append(order, empNo)
		} else {
			a.log.Debug().Int64("emp_no", empNo).Msg("duplicate employee row, keeping the later one")
		}
		latest[empNo] = row
	}

	for _, empNo := range order {
		doc, err := a.build(latest[empNo], empNo, idx)
		if err != nil {
			res.Skipped = append(res.Skipped, a.skip(domain.TableEmployees, fmt.Sprint(empNo), err))
			continue
		}
		res.Employees = append(res.Employees, doc)
	}
	return res
}

func (a *Aggregator) build(row domain.Row, empNo int64, idx Indexes) (domain.EmployeeDoc, error) {
	doc, err := mapper.MapEmployee(row)
	if err != nil {
		return doc, err
	}

	for _, de := range idx.DeptEmp.Get(empNo) {
		name := domain.UnknownDepartmentName
		if deptNo, ok := index.StringKey(de["dept_no"]); ok {
			if dept, found := idx.Departments[deptNo]; found {
				name = mapper.ToString(dept["dept_name"])
			}
		}
		assignment, err := mapper.MapDepartmentAssignment(de, name)
		if err != nil {
			return doc, fmt.Errorf("dept_emp: %w", err)
		}
		doc.Departments = append(doc.Departments, assignment)
	}

	for _, s := range idx.Salaries.Get(empNo) {
		salary, err := mapper.MapSalary(s)
		if err != nil {
			return doc, fmt.Errorf("salaries: %w", err)
		}
		doc.Salaries = append(doc.Salaries, salary)
	}

	for _, t := range idx.Titles.Get(empNo) {
		title, err := mapper.MapTitle(t)
		if err != nil {
			return doc, fmt.Errorf("titles: %w", err)
		}
		doc.Titles = append(doc.Titles, title)
	}

	if mgr, ok := a.policy(idx.DeptManager.Get(empNo)); ok {
		mgmt, err := mapper.MapManagement(mgr)
		if err != nil {
			return doc, fmt.Errorf("dept_manager: %w", err)
		}
		doc.Management = mgmt
	}

	return doc, nil
}

func (a *Aggregator) skip(table, key string, err error) SkippedRecord {
	a.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("skipping record")
	return SkippedRecord{Table: table, Key: key, Reason: err.Error()}
}
