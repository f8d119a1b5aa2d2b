// Package mapper converts relational rows into document records.
// Every function is pure: the same row always yields the same record or the same error.
package mapper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/locvowork/employee_migration/internal/domain"
)

// DateLayout is the textual date format of the source tables.
const DateLayout = "2006-01-02"

// NormalizeDate converts a raw column value into a date.
// A nil result means the value was absent, which for to_date means an open interval.
func NormalizeDate(field string, v any) (*time.Time, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &val, nil
	case *time.Time:
		return val, nil
	case []byte:
		return parseDate(field, string(val))
	case string:
		return parseDate(field, val)
	default:
		return nil, &domain.DateFormatError{Field: field, Value: v}
	}
}

func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return nil, &domain.DateFormatError{Field: field, Value: s}
	}
	return &t, nil
}

// ToInt64 coerces integer-like driver values.
func ToInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case float32:
		return floatToInt(float64(val))
	case float64:
		return floatToInt(val)
	case []byte:
		return parseInt(string(val))
	case string:
		return parseInt(val)
	default:
		return 0, false
	}
}

func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	// DECIMAL columns arrive as "60117.00"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return floatToInt(f)
}

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// ToNumber coerces numeric driver values. Integral values become int64, the rest float64.
func ToNumber(v any) (any, bool) {
	if n, ok := ToInt64(v); ok {
		return n, true
	}
	var f float64
	switch val := v.(type) {
	case float32:
		f = float64(val)
	case float64:
		f = val
	case []byte:
		return parseFloat(string(val))
	case string:
		return parseFloat(val)
	default:
		return nil, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return f, true
}

func parseFloat(s string) (any, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return f, true
}

// ToString renders text-like driver values. nil becomes "".
func ToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

func requireInt(row domain.Row, field string) (int64, error) {
	raw, ok := row[field]
	if !ok || raw == nil {
		return 0, &domain.FieldError{Field: field, Value: raw, Reason: "missing"}
	}
	n, ok := ToInt64(raw)
	if !ok {
		return 0, &domain.FieldError{Field: field, Value: raw, Reason: "not an integer"}
	}
	return n, nil
}

func requireNumber(row domain.Row, field string) (any, error) {
	raw, ok := row[field]
	if !ok || raw == nil {
		return nil, &domain.FieldError{Field: field, Value: raw, Reason: "missing"}
	}
	n, ok := ToNumber(raw)
	if !ok {
		return nil, &domain.FieldError{Field: field, Value: raw, Reason: "not a number"}
	}
	return n, nil
}

// interval maps the from_date/to_date pair shared by every temporal record.
func interval(row domain.Row) (from, to *time.Time, err error) {
	if from, err = NormalizeDate("from_date", row["from_date"]); err != nil {
		return nil, nil, err
	}
	if to, err = NormalizeDate("to_date", row["to_date"]); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// MapEmployee maps the scalar employee columns into a document skeleton
// with empty embedded arrays and no management record.
func MapEmployee(row domain.Row) (domain.EmployeeDoc, error) {
	empNo, err := requireInt(row, "emp_no")
	if err != nil {
		return domain.EmployeeDoc{}, err
	}
	birth, err := NormalizeDate("birth_date", row["birth_date"])
	if err != nil {
		return domain.EmployeeDoc{}, err
	}
	hire, err := NormalizeDate("hire_date", row["hire_date"])
	if err != nil {
		return domain.EmployeeDoc{}, err
	}
	return domain.EmployeeDoc{
		EmpNo:       empNo,
		BirthDate:   birth,
		FirstName:   ToString(row["first_name"]),
		LastName:    ToString(row["last_name"]),
		Gender:      ToString(row["gender"]),
		HireDate:    hire,
		Departments: []domain.DepartmentAssignment{},
		Salaries:    []domain.SalaryRecord{},
		Titles:      []domain.TitleRecord{},
	}, nil
}

// MapTitle maps a titles row.
func MapTitle(row domain.Row) (domain.TitleRecord, error) {
	from, to, err := interval(row)
	if err != nil {
		return domain.TitleRecord{}, err
	}
	return domain.TitleRecord{Title: ToString(row["title"]), FromDate: from, ToDate: to}, nil
}

// MapSalary maps a salaries row. DECIMAL amounts with cents are kept as float64.
func MapSalary(row domain.Row) (domain.SalaryRecord, error) {
	amount, err := requireNumber(row, "salary")
	if err != nil {
		return domain.SalaryRecord{}, err
	}
	from, to, err := interval(row)
	if err != nil {
		return domain.SalaryRecord{}, err
	}
	return domain.SalaryRecord{Salary: amount, FromDate: from, ToDate: to}, nil
}

// MapDepartmentAssignment maps a dept_emp row. deptName is the already resolved department name.
func MapDepartmentAssignment(row domain.Row, deptName string) (domain.DepartmentAssignment, error) {
	from, to, err := interval(row)
	if err != nil {
		return domain.DepartmentAssignment{}, err
	}
	return domain.DepartmentAssignment{
		DeptNo:   ToString(row["dept_no"]),
		DeptName: deptName,
		FromDate: from,
		ToDate:   to,
	}, nil
}

// MapManagement maps a dept_manager row into the embedded management record.
func MapManagement(row domain.Row) (*domain.ManagementRecord, error) {
	from, to, err := interval(row)
	if err != nil {
		return nil, err
	}
	return &domain.ManagementRecord{DeptNo: ToString(row["dept_no"]), FromDate: from, ToDate: to}, nil
}

// MapDepartment maps a departments row.
func MapDepartment(row domain.Row) domain.DepartmentDoc {
	return domain.DepartmentDoc{
		DeptNo:   ToString(row["dept_no"]),
		DeptName: ToString(row["dept_name"]),
	}
}

// MapDeptManager maps a dept_manager row into the standalone collection shape.
func MapDeptManager(row domain.Row) (domain.DeptManagerDoc, error) {
	empNo, err := requireInt(row, "emp_no")
	if err != nil {
		return domain.DeptManagerDoc{}, err
	}
	from, to, err := interval(row)
	if err != nil {
		return domain.DeptManagerDoc{}, err
	}
	return domain.DeptManagerDoc{
		EmpNo:    empNo,
		DeptNo:   ToString(row["dept_no"]),
		FromDate: from,
		ToDate:   to,
	}, nil
}
