package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/employee_migration/internal/domain"
)

func employeeRow(empNo int64, first string) domain.Row {
	return domain.Row{
		"emp_no":     empNo,
		"birth_date": "1960-01-01",
		"first_name": first,
		"last_name":  "Doe",
		"gender":     "F",
		"hire_date":  "1990-01-01",
	}
}

func newTestTransformer(buf *bytes.Buffer) *Transformer {
	log := zerolog.Nop()
	if buf != nil {
		log = zerolog.New(buf)
	}
	return NewTransformer(log, NewAggregator(log, nil))
}

func TestAggregate_NoChildRows(t *testing.T) {
	tr := newTestTransformer(nil)
	out := tr.Transform(Extracted{
		domain.TableEmployees: {employeeRow(1, "A"), employeeRow(2, "B")},
	})

	require.Len(t, out.Employees, 2)
	for _, doc := range out.Employees {
		assert.NotNil(t, doc.Titles)
		assert.Empty(t, doc.Titles)
		assert.Empty(t, doc.Salaries)
		assert.Empty(t, doc.Departments)
		assert.Nil(t, doc.Management)
	}
	assert.Empty(t, out.Skipped)
}

func TestAggregate_UnknownDepartmentFallsBack(t *testing.T) {
	tr := newTestTransformer(nil)
	out := tr.Transform(Extracted{
		domain.TableEmployees:   {employeeRow(1, "A")},
		domain.TableDepartments: {{"dept_no": "d001", "dept_name": "Marketing"}},
		domain.TableDeptEmp: {
			{"emp_no": int64(1), "dept_no": "d001", "from_date": "1990-01-01", "to_date": "1995-01-01"},
			{"emp_no": int64(1), "dept_no": "d999", "from_date": "1995-01-01", "to_date": nil},
		},
	})

	require.Len(t, out.Employees, 1)
	depts := out.Employees[0].Departments
	require.Len(t, depts, 2)
	assert.Equal(t, "Marketing", depts[0].DeptName)
	assert.Equal(t, "d999", depts[1].DeptNo)
	assert.Equal(t, domain.UnknownDepartmentName, depts[1].DeptName)
	assert.Nil(t, depts[1].ToDate)
}

func TestAggregate_ManagementFirstWins(t *testing.T) {
	tr := newTestTransformer(nil)
	out := tr.Transform(Extracted{
		domain.TableEmployees: {employeeRow(7, "M")},
		domain.TableDeptManager: {
			{"emp_no": int64(7), "dept_no": "d003", "from_date": "1991-01-01", "to_date": "1992-01-01"},
			{"emp_no": int64(7), "dept_no": "d001", "from_date": "1985-01-01", "to_date": "1991-01-01"},
			{"emp_no": int64(7), "dept_no": "d002", "from_date": "1992-01-01", "to_date": nil},
		},
	})

	require.Len(t, out.Employees, 1)
	mgmt := out.Employees[0].Management
	require.NotNil(t, mgmt)
	assert.Equal(t, "d003", mgmt.DeptNo)
	assert.True(t, mgmt.FromDate.Equal(time.Date(1991, 1, 1, 0, 0, 0, 0, time.UTC)))
	// the standalone collection keeps every interval
	assert.Len(t, out.DeptManager, 3)
}

func TestAggregate_CustomManagementPolicy(t *testing.T) {
	last := func(rows []domain.Row) (domain.Row, bool) {
		if len(rows) == 0 {
			return nil, false
		}
		return rows[len(rows)-1], true
	}
	agg := NewAggregator(zerolog.Nop(), last)
	tr := NewTransformer(zerolog.Nop(), agg)
	out := tr.Transform(Extracted{
		domain.TableEmployees: {employeeRow(7, "M")},
		domain.TableDeptManager: {
			{"emp_no": int64(7), "dept_no": "d003", "from_date": "1991-01-01"},
			{"emp_no": int64(7), "dept_no": "d002", "from_date": "1992-01-01"},
		},
	})
	require.NotNil(t, out.Employees[0].Management)
	assert.Equal(t, "d002", out.Employees[0].Management.DeptNo)
}

func TestAggregate_MalformedDateDropsOnlyThatEmployee(t *testing.T) {
	var buf bytes.Buffer
	tr := newTestTransformer(&buf)
	out := tr.Transform(Extracted{
		domain.TableEmployees: {employeeRow(1, "A"), employeeRow(2, "B"), employeeRow(3, "C")},
		domain.TableTitles: {
			{"emp_no": int64(2), "title": "Staff", "from_date": "not-a-date", "to_date": nil},
			{"emp_no": int64(3), "title": "Staff", "from_date": "1990-01-01", "to_date": nil},
		},
	})

	require.Len(t, out.Employees, 2)
	assert.Equal(t, int64(1), out.Employees[0].EmpNo)
	assert.Equal(t, int64(3), out.Employees[1].EmpNo)
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, domain.TableEmployees, out.Skipped[0].Table)
	assert.Equal(t, "2", out.Skipped[0].Key)
	assert.Contains(t, out.Skipped[0].Reason, "not-a-date")
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "skipping record")
}

func TestAggregate_EmbeddingOrderAndNoDedup(t *testing.T) {
	tr := newTestTransformer(nil)
	out := tr.Transform(Extracted{
		domain.TableEmployees: {employeeRow(1, "A")},
		domain.TableSalaries: {
			{"emp_no": int64(1), "salary": int64(100), "from_date": "1990-01-01", "to_date": "1991-01-01"},
			{"emp_no": int64(1), "salary": int64(100), "from_date": "1990-01-01", "to_date": "1991-01-01"},
			{"emp_no": int64(1), "salary": int64(200), "from_date": "1991-01-01", "to_date": nil},
		},
	})

	sal := out.Employees[0].Salaries
	require.Len(t, sal, 3)
	assert.Equal(t, []any{int64(100), int64(100), int64(200)}, []any{sal[0].Salary, sal[1].Salary, sal[2].Salary})
}

func TestAggregate_FractionalSalaryIsKept(t *testing.T) {
	tr := newTestTransformer(nil)
	out := tr.Transform(Extracted{
		domain.TableEmployees: {employeeRow(1, "A")},
		domain.TableSalaries: {
			{"emp_no": int64(1), "salary": 60117.50, "from_date": "1990-01-01", "to_date": "1991-01-01"},
			{"emp_no": int64(1), "salary": "62102.25", "from_date": "1991-01-01", "to_date": nil},
		},
	})

	assert.Empty(t, out.Skipped)
	require.Len(t, out.Employees, 1)
	sal := out.Employees[0].Salaries
	require.Len(t, sal, 2)
	assert.Equal(t, 60117.50, sal[0].Salary)
	assert.Equal(t, 62102.25, sal[1].Salary)
}

func TestAggregate_DuplicateEmployeeLastWins(t *testing.T) {
	tr := newTestTransformer(nil)
	out := tr.Transform(Extracted{
		domain.TableEmployees: {employeeRow(1, "Old"), employeeRow(2, "B"), employeeRow(1, "New")},
	})

	require.Len(t, out.Employees, 2)
	assert.Equal(t, int64(1), out.Employees[0].EmpNo)
	assert.Equal(t, "New", out.Employees[0].FirstName)
	assert.Equal(t, int64(2), out.Employees[1].EmpNo)
}

func TestAggregate_OrphansAreCountedNotEmbedded(t *testing.T) {
	var buf bytes.Buffer
	tr := newTestTransformer(&buf)
	out := tr.Transform(Extracted{
		domain.TableEmployees: {employeeRow(1, "A")},
		domain.TableTitles: {
			{"emp_no": int64(404), "title": "Ghost", "from_date": "1990-01-01"},
			{"emp_no": "bogus", "title": "Ghost", "from_date": "1990-01-01"},
		},
	})

	require.Len(t, out.Employees, 1)
	assert.Empty(t, out.Employees[0].Titles)
	assert.Equal(t, 2, out.Orphans[domain.TableTitles])
	assert.Contains(t, buf.String(), "child rows reference no known employee")
}

func TestTransform_EndToEndScenario(t *testing.T) {
	tr := newTestTransformer(nil)
	departments := []domain.Row{
		{"dept_no": "d001", "dept_name": "Marketing"},
		{"dept_no": "d002", "dept_name": "Finance"},
	}
	out := tr.Transform(Extracted{
		domain.TableEmployees:   {employeeRow(1, "A"), employeeRow(2, "B")},
		domain.TableDepartments: departments,
		domain.TableTitles:      {{"emp_no": int64(1), "title": "Engineer", "from_date": "1990-01-01", "to_date": nil}},
		domain.TableSalaries:    {{"emp_no": int64(1), "salary": int64(50000), "from_date": "1990-01-01", "to_date": "1991-01-01"}},
		domain.TableDeptEmp: {
			{"emp_no": int64(1), "dept_no": "d001", "from_date": "1990-01-01", "to_date": "1995-01-01"},
			{"emp_no": int64(1), "dept_no": "d404", "from_date": "1995-01-01", "to_date": nil},
		},
	})

	require.Len(t, out.Employees, 2)
	emp1, emp2 := out.Employees[0], out.Employees[1]

	assert.Len(t, emp1.Titles, 1)
	assert.Len(t, emp1.Salaries, 1)
	require.Len(t, emp1.Departments, 2)
	assert.Equal(t, domain.UnknownDepartmentName, emp1.Departments[1].DeptName)
	assert.Nil(t, emp1.Management)

	assert.Empty(t, emp2.Titles)
	assert.Empty(t, emp2.Salaries)
	assert.Empty(t, emp2.Departments)
	assert.Nil(t, emp2.Management)

	assert.Equal(t, []domain.DepartmentDoc{
		{DeptNo: "d001", DeptName: "Marketing"},
		{DeptNo: "d002", DeptName: "Finance"},
	}, out.Departments)
	assert.Empty(t, out.DeptManager)

	assert.Len(t, out.Documents(domain.CollectionEmployees), 2)
	assert.Len(t, out.Documents(domain.CollectionDepartments), 2)
	assert.Empty(t, out.Documents(domain.CollectionDeptManager))
}

func TestTransform_MalformedDeptManagerRowDroppedAlone(t *testing.T) {
	tr := newTestTransformer(nil)
	out := tr.Transform(Extracted{
		domain.TableEmployees: {employeeRow(1, "A"), employeeRow(2, "B")},
		domain.TableDeptManager: {
			{"emp_no": int64(1), "dept_no": "d001", "from_date": "1990-01-01"},
			{"emp_no": int64(9), "dept_no": "d002", "from_date": "31.12.1999"},
		},
	})

	assert.Len(t, out.DeptManager, 1)
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, domain.TableDeptManager, out.Skipped[0].Table)
}
