package domain

import (
	"strconv"
	"time"
)

// Destination collection names
const (
	CollectionEmployees   = "employees"
	CollectionDepartments = "departments"
	CollectionDeptManager = "dept_manager"
)

// Source table names
const (
	TableEmployees   = "employees"
	TableDepartments = "departments"
	TableDeptEmp     = "dept_emp"
	TableDeptManager = "dept_manager"
	TableSalaries    = "salaries"
	TableTitles      = "titles"
)

// SourceTables lists the logical tables in extraction order.
var SourceTables = []string{
	TableEmployees,
	TableDepartments,
	TableDeptEmp,
	TableDeptManager,
	TableSalaries,
	TableTitles,
}

// UnknownDepartmentName is used when a dept_emp row references a department that does not exist.
const UnknownDepartmentName = "Unknown"

// Row is one relational row keyed by column name.
type Row map[string]any

// Document is anything the bulk writer can persist.
// DocumentID returns the natural key of the document, or "" to let the store assign one.
type Document interface {
	DocumentID() string
}

// ==================== EMBEDDED RECORDS ====================

// TitleRecord is one title interval of an employee. A nil ToDate means the title is still held.
type TitleRecord struct {
	Title    string     `json:"title" bson:"title"`
	FromDate *time.Time `json:"from_date" bson:"from_date"`
	ToDate   *time.Time `json:"to_date" bson:"to_date"`
}

// SalaryRecord is one salary interval of an employee.
// Salary holds an int64, or a float64 when the source amount has a fractional part.
type SalaryRecord struct {
	Salary   any        `json:"salary" bson:"salary"`
	FromDate *time.Time `json:"from_date" bson:"from_date"`
	ToDate   *time.Time `json:"to_date" bson:"to_date"`
}

// DepartmentAssignment is one interval of membership in a department.
type DepartmentAssignment struct {
	DeptNo   string     `json:"dept_no" bson:"dept_no"`
	DeptName string     `json:"dept_name" bson:"dept_name"`
	FromDate *time.Time `json:"from_date" bson:"from_date"`
	ToDate   *time.Time `json:"to_date" bson:"to_date"`
}

// ManagementRecord is the employee's own management tenure over a department.
type ManagementRecord struct {
	DeptNo   string     `json:"dept_no" bson:"dept_no"`
	FromDate *time.Time `json:"from_date" bson:"from_date"`
	ToDate   *time.Time `json:"to_date" bson:"to_date"`
}

// ==================== DOCUMENTS ====================

// EmployeeDoc is the denormalized employee document.
type EmployeeDoc struct {
	EmpNo       int64                  `json:"emp_no" bson:"emp_no"`
	BirthDate   *time.Time             `json:"birth_date" bson:"birth_date"`
	FirstName   string                 `json:"first_name" bson:"first_name"`
	LastName    string                 `json:"last_name" bson:"last_name"`
	Gender      string                 `json:"gender" bson:"gender"`
	HireDate    *time.Time             `json:"hire_date" bson:"hire_date"`
	Departments []DepartmentAssignment `json:"departments" bson:"departments"`
	Salaries    []SalaryRecord         `json:"salaries" bson:"salaries"`
	Titles      []TitleRecord          `json:"titles" bson:"titles"`
	Management  *ManagementRecord      `json:"management" bson:"management"`
}

func (e EmployeeDoc) DocumentID() string { return strconv.FormatInt(e.EmpNo, 10) }

// DepartmentDoc is a row of the standalone departments collection.
type DepartmentDoc struct {
	DeptNo   string `json:"dept_no" bson:"dept_no"`
	DeptName string `json:"dept_name" bson:"dept_name"`
}

func (d DepartmentDoc) DocumentID() string { return d.DeptNo }

// DeptManagerDoc is a row of the standalone dept_manager collection.
type DeptManagerDoc struct {
	EmpNo    int64      `json:"emp_no" bson:"emp_no"`
	DeptNo   string     `json:"dept_no" bson:"dept_no"`
	FromDate *time.Time `json:"from_date" bson:"from_date"`
	ToDate   *time.Time `json:"to_date" bson:"to_date"`
}

// DocumentID is empty: an employee may manage the same department more than once.
func (d DeptManagerDoc) DocumentID() string { return "" }
