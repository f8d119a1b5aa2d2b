package domain

import "context"

// SourceReader runs read queries against the relational source
type SourceReader interface {
	Fetch(ctx context.Context, query string) ([]Row, error)
	Close() error
}

// DocumentStore is the destination document database
type DocumentStore interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// DeleteAll removes every document of the collection.
	DeleteAll(ctx context.Context, collection string) (int64, error)
	// InsertMany inserts docs without stopping at the first failure.
	// Per-document rejections are reported as *PartialWriteError with batch-relative indices.
	InsertMany(ctx context.Context, collection string, docs []Document) (int, error)
	Close(ctx context.Context) error
}
