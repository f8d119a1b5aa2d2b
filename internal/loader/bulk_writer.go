// Package loader writes documents into the destination store with full-refresh semantics.
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/locvowork/employee_migration/internal/domain"
)

// DefaultBatchSize is used when Options.BatchSize is not positive.
const DefaultBatchSize = 1000

// Options tune the BulkWriter.
type Options struct {
	BatchSize int
	// ClearOnEmpty clears the collection even when there is nothing to insert.
	// The default keeps the previous content untouched in that case.
	ClearOnEmpty bool
	// WriteTimeout bounds each delete or insert call. Zero means no timeout.
	WriteTimeout time.Duration
}

// LoadReport summarizes the load of one collection.
type LoadReport struct {
	Collection string                `json:"collection"`
	Attempted  int                   `json:"attempted"`
	Inserted   int                   `json:"inserted"`
	Deleted    int64                 `json:"deleted"`
	Batches    int                   `json:"batches"`
	Cleared    bool                  `json:"cleared"`
	Failures   []domain.WriteFailure `json:"failures,omitempty"`
	Duration   time.Duration         `json:"duration"`
}

// Failed returns the number of rejected documents.
func (r *LoadReport) Failed() int { return len(r.Failures) }

// BulkWriter replaces the content of destination collections in bounded batches
type BulkWriter struct {
	store domain.DocumentStore
	log   zerolog.Logger
	opts  Options
}

// NewBulkWriter creates a BulkWriter for store.
func NewBulkWriter(store domain.DocumentStore, log zerolog.Logger, opts Options) *BulkWriter {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &BulkWriter{store: store, log: log, opts: opts}
}

// BatchSize returns the effective batch size.
func (w *BulkWriter) BatchSize() int { return w.opts.BatchSize }

// Load deletes the collection content and inserts docs batch by batch.
// Rejected documents are collected into the report and do not stop the load;
// any other store error aborts and is returned.
func (w *BulkWriter) Load(ctx context.Context, collection string, docs []domain.Document) (*LoadReport, error) {
	start := time.Now()
	report := &LoadReport{Collection: collection, Attempted: len(docs)}
	log := w.log.With().Str("collection", collection).Str("store", w.store.Name()).Logger()

	if len(docs) == 0 && !w.opts.ClearOnEmpty {
		log.Warn().Msg("no documents to load, leaving collection untouched")
		report.Duration = time.Since(start)
		return report, nil
	}

	deleted, err := w.withTimeout(ctx, func(ctx context.Context) (int64, error) {
		return w.store.DeleteAll(ctx, collection)
	})
	if err != nil {
		report.Duration = time.Since(start)
		return report, fmt.Errorf("clear %s: %w", collection, err)
	}
	report.Deleted = deleted
	report.Cleared = true
	log.Info().Int64("deleted", deleted).Msg("collection cleared")

	for offset := 0; offset < len(docs); offset += w.opts.BatchSize {
		end := offset + w.opts.BatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[offset:end]
		report.Batches++

		inserted, err := w.withTimeout(ctx, func(ctx context.Context) (int64, error) {
			n, err := w.store.InsertMany(ctx, collection, batch)
			return int64(n), err
		})
		report.Inserted += int(inserted)

		var pwe *domain.PartialWriteError
		switch {
		case err == nil:
		case errors.As(err, &pwe):
			for _, f := range pwe.Failures {
				f.Index += offset
				report.Failures = append(report.Failures, f)
			}
			log.Error().
				Int("batch", report.Batches).
				Int("failed", len(pwe.Failures)).
				Interface("failures", pwe.Failures).
				Msg("partial batch write")
		default:
			report.Duration = time.Since(start)
			return report, fmt.Errorf("insert %s batch %d: %w", collection, report.Batches, err)
		}
	}

	report.Duration = time.Since(start)
	log.Info().
		Int("inserted", report.Inserted).
		Int("failed", report.Failed()).
		Int("batches", report.Batches).
		Dur("duration", report.Duration).
		Msg("collection loaded")
	return report, nil
}

func (w *BulkWriter) withTimeout(ctx context.Context, fn func(context.Context) (int64, error)) (int64, error) {
	if w.opts.WriteTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, w.opts.WriteTimeout)
	defer cancel()
	return fn(ctx)
}
