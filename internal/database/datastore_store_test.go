package database

import (
	"testing"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/employee_migration/internal/domain"
)

func date(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func propertyMap(props datastore.PropertyList) map[string]datastore.Property {
	m := make(map[string]datastore.Property, len(props))
	for _, p := range props {
		m[p.Name] = p
	}
	return m
}

func TestToPropertyList_Employee(t *testing.T) {
	doc := domain.EmployeeDoc{
		EmpNo:     10001,
		BirthDate: date("1953-09-02"),
		FirstName: "Georgi",
		LastName:  "Facello",
		Gender:    "M",
		HireDate:  date("1986-06-26"),
		Departments: []domain.DepartmentAssignment{
			{DeptNo: "d005", DeptName: "Development", FromDate: date("1986-06-26")},
		},
		Salaries: []domain.SalaryRecord{},
		Titles:   []domain.TitleRecord{},
	}

	props, err := ToPropertyList(doc)
	require.NoError(t, err)
	m := propertyMap(props)

	assert.Equal(t, int64(10001), m["emp_no"].Value)
	assert.Equal(t, "Georgi", m["first_name"].Value)
	hire, ok := m["hire_date"].Value.(time.Time)
	require.True(t, ok)
	assert.True(t, date("1986-06-26").Equal(hire))
	assert.Nil(t, m["management"].Value)

	depts, ok := m["departments"].Value.([]interface{})
	require.True(t, ok)
	require.Len(t, depts, 1)
	assert.True(t, m["departments"].NoIndex)

	dept, ok := depts[0].(*datastore.Entity)
	require.True(t, ok)
	dm := propertyMap(dept.Properties)
	assert.Equal(t, "Development", dm["dept_name"].Value)
	assert.Nil(t, dm["to_date"].Value)

	salaries, ok := m["salaries"].Value.([]interface{})
	require.True(t, ok)
	assert.Empty(t, salaries)
}

func TestToPropertyList_Management(t *testing.T) {
	doc := domain.EmployeeDoc{
		EmpNo:      110022,
		Management: &domain.ManagementRecord{DeptNo: "d001", FromDate: date("1985-01-01"), ToDate: date("1991-10-01")},
	}

	props, err := ToPropertyList(doc)
	require.NoError(t, err)

	mgmt, ok := propertyMap(props)["management"].Value.(*datastore.Entity)
	require.True(t, ok)
	assert.Equal(t, "d001", propertyMap(mgmt.Properties)["dept_no"].Value)
}

func TestDocumentKey(t *testing.T) {
	key := documentKey("employees", domain.EmployeeDoc{EmpNo: 10001})
	assert.Equal(t, "10001", key.Name)
	assert.Equal(t, "employees", key.Kind)

	key = documentKey("dept_manager", domain.DeptManagerDoc{EmpNo: 1, DeptNo: "d001"})
	assert.True(t, key.Incomplete())
}
