package database

import (
	"context"
	"sync"

	"github.com/locvowork/employee_migration/internal/domain"
)

// MemoryStore keeps documents in process memory. It backs dry runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]domain.Document
	closed      bool

	// Reject, when set, is asked for every document; a non-nil error rejects it.
	Reject func(collection string, doc domain.Document) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]domain.Document)}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) DeleteAll(_ context.Context, collection string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.collections[collection]))
	delete(s.collections, collection)
	return n, nil
}

func (s *MemoryStore) InsertMany(ctx context.Context, collection string, docs []domain.Document) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var failures []domain.WriteFailure
	for i, doc := range docs {
		if s.Reject != nil {
			if err := s.Reject(collection, doc); err != nil {
				failures = append(failures, domain.WriteFailure{Index: i, DocumentID: doc.DocumentID(), Reason: err.Error()})
				continue
			}
		}
		s.collections[collection] = append(s.collections[collection], doc)
	}
	if len(failures) > 0 {
		return len(docs) - len(failures), &domain.PartialWriteError{Collection: collection, Failures: failures}
	}
	return len(docs), nil
}

func (s *MemoryStore) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Documents returns a copy of the stored content of collection.
func (s *MemoryStore) Documents(collection string) []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, len(s.collections[collection]))
	copy(out, s.collections[collection])
	return out
}

// Seed puts docs into collection without going through InsertMany.
func (s *MemoryStore) Seed(collection string, docs ...domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], docs...)
}

// Closed reports whether Close was called.
func (s *MemoryStore) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
