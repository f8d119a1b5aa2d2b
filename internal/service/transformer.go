package service

import (
	"github.com/rs/zerolog"

	"github.com/locvowork/employee_migration/internal/domain"
	"github.com/locvowork/employee_migration/internal/index"
	"github.com/locvowork/employee_migration/internal/mapper"
)

// Extracted holds the raw rows of every source table, keyed by table name.
type Extracted map[string][]domain.Row

// Transformed holds the documents of the three destination collections.
type Transformed struct {
	Employees   []domain.EmployeeDoc
	Departments []domain.DepartmentDoc
	DeptManager []domain.DeptManagerDoc
	Skipped     []SkippedRecord
	// Orphans counts child rows per table that matched no employee.
	Orphans map[string]int
}

// Documents returns the documents of a destination collection.
func (t *Transformed) Documents(collection string) []domain.Document {
	var docs []domain.Document
	switch collection {
	case domain.CollectionEmployees:
		docs = make([]domain.Document, len(t.Employees))
		for i := range t.Employees {
			docs[i] = t.Employees[i]
		}
	case domain.CollectionDepartments:
		docs = make([]domain.Document, len(t.Departments))
		for i := range t.Departments {
			docs[i] = t.Departments[i]
		}
	case domain.CollectionDeptManager:
		docs = make([]domain.Document, len(t.DeptManager))
		for i := range t.DeptManager {
			docs[i] = t.DeptManager[i]
		}
	}
	return docs
}

// Transformer turns the extracted tables into destination documents
type Transformer struct {
	log        zerolog.Logger
	aggregator *Aggregator
}

// NewTransformer creates a Transformer around an Aggregator.
func NewTransformer(log zerolog.Logger, aggregator *Aggregator) *Transformer {
	return &Transformer{log: log, aggregator: aggregator}
}

// BuildIndexes builds the join indexes. Child rows without a usable emp_no are counted as orphans.
func (t *Transformer) BuildIndexes(data Extracted) (Indexes, map[string]int) {
	orphans := make(map[string]int)
	group := func(table string) index.Index[int64] {
		idx, rejected := index.Group(data[table], "emp_no", index.IntKey)
		if len(rejected) > 0 {
			orphans[table] += len(rejected)
		}
		return idx
	}

	idx := Indexes{
		Titles:      group(domain.TableTitles),
		Salaries:    group(domain.TableSalaries),
		DeptEmp:     group(domain.TableDeptEmp),
		DeptManager: group(domain.TableDeptManager),
	}
	departments, rejected := index.Unique(data[domain.TableDepartments], "dept_no", index.StringKey)
	if len(rejected) > 0 {
		t.log.Warn().Int("rows", len(rejected)).Msg("departments rows without dept_no ignored for lookup")
	}
	idx.Departments = departments
	return idx, orphans
}

// Transform runs indexing and aggregation and maps the standalone collections.
func (t *Transformer) Transform(data Extracted) *Transformed {
	idx, orphans := t.BuildIndexes(data)
	return t.TransformIndexed(data, idx, orphans)
}

// TransformIndexed is Transform over indexes that were already built.
func (t *Transformer) TransformIndexed(data Extracted, idx Indexes, orphans map[string]int) *Transformed {
	agg := t.aggregator.Aggregate(data[domain.TableEmployees], idx)

	known := make(map[int64]struct{}, len(data[domain.TableEmployees]))
	for _, row := range data[domain.TableEmployees] {
		if empNo, ok := index.IntKey(row["emp_no"]); ok {
			known[empNo] = struct{}{}
		}
	}
	for table, children := range map[string]index.Index[int64]{
		domain.TableTitles:      idx.Titles,
		domain.TableSalaries:    idx.Salaries,
		domain.TableDeptEmp:     idx.DeptEmp,
		domain.TableDeptManager: idx.DeptManager,
	} {
		for empNo, rows := range children {
			if _, ok := known[empNo]; !ok {
				orphans[table] += len(rows)
			}
		}
	}
	for table, n := range orphans {
		t.log.Warn().Str("table", table).Int("rows", n).Msg("child rows reference no known employee and were not embedded")
	}

	out := &Transformed{
		Employees:   agg.Employees,
		Departments: make([]domain.DepartmentDoc, 0, len(data[domain.TableDepartments])),
		DeptManager: make([]domain.DeptManagerDoc, 0, len(data[domain.TableDeptManager])),
		Skipped:     agg.Skipped,
		Orphans:     orphans,
	}

	for _, row := range data[domain.TableDepartments] {
		out.Departments = append(out.Departments, mapper.MapDepartment(row))
	}

	for _, row := range data[domain.TableDeptManager] {
		dm, err := mapper.MapDeptManager(row)
		if err != nil {
			out.Skipped = append(out.Skipped, t.aggregator.skip(domain.TableDeptManager, mapper.ToString(row["emp_no"]), err))
			continue
		}
		out.DeptManager = append(out.DeptManager, dm)
	}

	t.log.Info().
		Int("employees", len(out.Employees)).
		Int("departments", len(out.Departments)).
		Int("dept_manager", len(out.DeptManager)).
		Int("skipped", len(out.Skipped)).
		Msg("transformation finished")
	return out
}
