package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/locvowork/employee_migration/internal/domain"
)

// SQLSourceReader reads source tables through database/sql.
type SQLSourceReader struct {
	db      *sql.DB
	log     zerolog.Logger
	timeout time.Duration
}

// NewSQLSourceReader creates a reader over db. A zero timeout disables the per-query deadline.
func NewSQLSourceReader(db *sql.DB, log zerolog.Logger, timeout time.Duration) *SQLSourceReader {
	return &SQLSourceReader{db: db, log: log, timeout: timeout}
}

// Fetch runs query and returns every row in source order.
func (r *SQLSourceReader) Fetch(ctx context.Context, query string) ([]domain.Row, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &domain.SourceQueryError{Query: query, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &domain.SourceQueryError{Query: query, Err: err}
	}

	var result []domain.Row
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &domain.SourceQueryError{Query: query, Err: err}
		}

		row := make(domain.Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.SourceQueryError{Query: query, Err: err}
	}

	r.log.Info().Str("query", query).Int("rows", len(result)).Dur("elapsed", time.Since(start)).Msg("executed query")
	return result, nil
}

func (r *SQLSourceReader) Close() error {
	return r.db.Close()
}

// normalizeValue copies driver-owned byte slices into strings.
func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
