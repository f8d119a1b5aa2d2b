package repository

import (
	"github.com/locvowork/employee_migration/internal/config"
	"github.com/locvowork/employee_migration/internal/domain"
	"github.com/locvowork/employee_migration/internal/repository/builder"
)

// TableQueries returns the read query for every logical source table, keyed by table name.
// Without an override a table is read with SELECT * FROM <table>.
func TableQueries(overrides map[string]config.TableOverride) map[string]string {
	queries := make(map[string]string, len(domain.SourceTables))
	for _, name := range domain.SourceTables {
		o := overrides[name]
		table := name
		if o.Table != "" {
			table = o.Table
		}
		queries[name] = builder.NewSQLBuilder().
			Select(o.Columns...).
			From(table).
			OrderBy(o.OrderBy...).
			Build()
	}
	return queries
}
