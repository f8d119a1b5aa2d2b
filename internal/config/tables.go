package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/locvowork/employee_migration/internal/domain"
)

// TableOverride changes how one logical source table is read.
type TableOverride struct {
	Table   string   `yaml:"table"`
	Columns []string `yaml:"columns"`
	OrderBy []string `yaml:"order_by"`
}

type tablesFile struct {
	Tables map[string]TableOverride `yaml:"tables"`
}

// LoadTables parses a YAML table file of the form
//
//	tables:
//	  titles:
//	    table: employees.titles
//	    order_by: [emp_no, from_date]
//
// An empty path returns no overrides.
func LoadTables(path string) (map[string]TableOverride, error) {
	if path == "" {
		return map[string]TableOverride{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables file: %w", err)
	}
	return ParseTables(raw)
}

// ParseTables decodes the YAML table file content. Unknown logical tables are rejected.
func ParseTables(raw []byte) (map[string]TableOverride, error) {
	var f tablesFile
	if err := yaml.UnmarshalStrict(raw, &f); err != nil {
		return nil, fmt.Errorf("parse tables file: %w", err)
	}
	known := make(map[string]bool, len(domain.SourceTables))
	for _, t := range domain.SourceTables {
		known[t] = true
	}
	for name := range f.Tables {
		if !known[name] {
			return nil, fmt.Errorf("unknown source table %q in tables file", name)
		}
	}
	if f.Tables == nil {
		f.Tables = map[string]TableOverride{}
	}
	return f.Tables, nil
}
