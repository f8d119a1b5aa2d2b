// Package index builds the in-memory join indexes used to denormalize child tables.
package index

import (
	"github.com/locvowork/employee_migration/internal/domain"
	"github.com/locvowork/employee_migration/internal/mapper"
)

// KeyFunc coerces a raw column value into an index key.
type KeyFunc[K comparable] func(v any) (K, bool)

// Index maps a key to its rows in source order (one-to-many).
type Index[K comparable] map[K][]domain.Row

// Lookup maps a key to a single row (one-to-one).
type Lookup[K comparable] map[K]domain.Row

// IntKey coerces integer keys such as emp_no.
func IntKey(v any) (int64, bool) {
	return mapper.ToInt64(v)
}

// StringKey coerces text keys such as dept_no.
func StringKey(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s := mapper.ToString(v)
	return s, s != ""
}

// Group indexes rows by field. Rows sharing a key keep their relative source order.
// Rows whose key is missing or cannot be coerced are returned as rejected.
func Group[K comparable](rows []domain.Row, field string, key KeyFunc[K]) (Index[K], []domain.Row) {
	idx := make(Index[K])
	var rejected []domain.Row
	for _, r := range rows {
		k, ok := key(r[field])
		if !ok {
			rejected = append(rejected, r)
			continue
		}
		idx[k] = append(idx[k], r)
	}
	return idx, rejected
}

// Unique indexes rows by field keeping the last row seen for each key.
func Unique[K comparable](rows []domain.Row, field string, key KeyFunc[K]) (Lookup[K], []domain.Row) {
	lookup := make(Lookup[K], len(rows))
	var rejected []domain.Row
	for _, r := range rows {
		k, ok := key(r[field])
		if !ok {
			rejected = append(rejected, r)
			continue
		}
		lookup[k] = r
	}
	return lookup, rejected
}

// Get returns the rows for k, or an empty slice.
func (idx Index[K]) Get(k K) []domain.Row {
	if rows, ok := idx[k]; ok {
		return rows
	}
	return []domain.Row{}
}

// Size returns the number of indexed rows across all keys.
func (idx Index[K]) Size() int {
	n := 0
	for _, rows := range idx {
		n += len(rows)
	}
	return n
}
