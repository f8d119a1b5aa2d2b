// Package pipeline drives one migration run from extraction to load.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/locvowork/employee_migration/internal/domain"
	"github.com/locvowork/employee_migration/internal/loader"
	"github.com/locvowork/employee_migration/internal/metrics"
	"github.com/locvowork/employee_migration/internal/service"
)

// LoadOrder is the order in which destination collections are written.
var LoadOrder = []string{
	domain.CollectionDepartments,
	domain.CollectionEmployees,
	domain.CollectionDeptManager,
}

// closeTimeout bounds connection release once the run context may already be done.
const closeTimeout = 10 * time.Second

// SourceFactory opens a connection to the relational source.
type SourceFactory func(ctx context.Context) (domain.SourceReader, error)

// StoreFactory opens a connection to the destination document store.
type StoreFactory func(ctx context.Context) (domain.DocumentStore, error)

// Result summarizes a finished run.
type Result struct {
	RunID     string                  `json:"run_id"`
	State     State                   `json:"state"`
	Extracted map[string]int          `json:"extracted"`
	Loads     []*loader.LoadReport    `json:"loads"`
	Skipped   []service.SkippedRecord `json:"skipped"`
	Orphans   map[string]int          `json:"orphans"`
	Duration  time.Duration           `json:"duration"`
	Err       error                   `json:"-"`
}

// WriteFailures counts the documents rejected across all collections.
func (r *Result) WriteFailures() int {
	n := 0
	for _, l := range r.Loads {
		n += l.Failed()
	}
	return n
}

// Orchestrator sequences extract, index, transform and load, and owns the connection lifecycle.
type Orchestrator struct {
	openSource  SourceFactory
	openStore   StoreFactory
	transformer *service.Transformer
	queries     map[string]string
	loaderOpts  loader.Options
	log         zerolog.Logger
	metrics     *metrics.Recorder
	status      *Status
}

// Params groups the dependencies of an Orchestrator.
type Params struct {
	Source      SourceFactory
	Store       StoreFactory
	Transformer *service.Transformer
	// Queries maps every logical source table to its read query.
	Queries map[string]string
	Loader  loader.Options
	Log     zerolog.Logger
	Metrics *metrics.Recorder
	Status  *Status
}

func New(p Params) *Orchestrator {
	if p.Metrics == nil {
		p.Metrics = metrics.Nop()
	}
	if p.Status == nil {
		p.Status = NewStatus("")
	}
	return &Orchestrator{
		openSource:  p.Source,
		openStore:   p.Store,
		transformer: p.Transformer,
		queries:     p.Queries,
		loaderOpts:  p.Loader,
		log:         p.Log,
		metrics:     p.Metrics,
		status:      p.Status,
	}
}

// Status returns the tracker updated by Run.
func (o *Orchestrator) Status() *Status { return o.status }

// Run executes the pipeline once. On failure the returned Result is in state FAILED
// and the error says which stage failed.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:     o.status.Snapshot().RunID,
		State:     StateInit,
		Extracted: make(map[string]int, len(domain.SourceTables)),
	}
	o.log.Info().Msg("migration started")

	data, err := o.extract(ctx, res)
	if err != nil {
		return o.failed(res, start, fmt.Errorf("extract: %w", err))
	}

	o.transition(res, StateIndexing)
	stepStart := time.Now()
	idx, orphans := o.transformer.BuildIndexes(data)
	o.metrics.RecordStep("index", nil, time.Since(stepStart))

	o.transition(res, StateTransforming)
	stepStart = time.Now()
	out := o.transformer.TransformIndexed(data, idx, orphans)
	o.metrics.RecordStep("transform", nil, time.Since(stepStart))
	res.Skipped = out.Skipped
	res.Orphans = out.Orphans
	for table, n := range out.Orphans {
		o.metrics.RecordRows("orphaned", table, int64(n))
	}
	for _, s := range out.Skipped {
		o.metrics.RecordRows("skipped", s.Table, 1)
	}

	if err := o.load(ctx, res, out); err != nil {
		return o.failed(res, start, fmt.Errorf("load: %w", err))
	}

	o.transition(res, StateDone)
	res.Duration = time.Since(start)
	o.log.Info().
		Dur("duration", res.Duration).
		Int("skipped", len(res.Skipped)).
		Int("write_failures", res.WriteFailures()).
		Msg("migration finished")
	return res, nil
}

func (o *Orchestrator) extract(ctx context.Context, res *Result) (data service.Extracted, err error) {
	o.transition(res, StateExtracting)
	stepStart := time.Now()
	defer func() { o.metrics.RecordStep("extract", err, time.Since(stepStart)) }()

	src, err := o.openSource(ctx)
	if err != nil {
		return nil, err
	}
	// the source is released as soon as extraction ends, whatever the outcome
	defer func() {
		if cerr := src.Close(); cerr != nil {
			o.log.Warn().Err(cerr).Msg("closing source connection")
		} else {
			o.log.Info().Msg("source connection closed")
		}
	}()

	data = make(service.Extracted, len(domain.SourceTables))
	for _, table := range domain.SourceTables {
		query, ok := o.queries[table]
		if !ok {
			return nil, fmt.Errorf("no query configured for table %s", table)
		}
		rows, err := src.Fetch(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", table, err)
		}
		data[table] = rows
		res.Extracted[table] = len(rows)
		o.metrics.RecordRows("extracted", table, int64(len(rows)))
		o.log.Info().Str("table", table).Int("rows", len(rows)).Msg("table extracted")
	}
	return data, nil
}

func (o *Orchestrator) load(ctx context.Context, res *Result, out *service.Transformed) (err error) {
	o.transition(res, StateLoading)
	stepStart := time.Now()
	defer func() { o.metrics.RecordStep("load", err, time.Since(stepStart)) }()

	store, err := o.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if cerr := store.Close(closeCtx); cerr != nil {
			o.log.Warn().Err(cerr).Msg("closing destination connection")
		}
	}()

	writer := loader.NewBulkWriter(store, o.log, o.loaderOpts)
	for _, collection := range LoadOrder {
		report, err := writer.Load(ctx, collection, out.Documents(collection))
		if report != nil {
			res.Loads = append(res.Loads, report)
			o.status.Loaded(report)
			o.metrics.RecordRows("inserted", collection, int64(report.Inserted))
			o.metrics.RecordRows("failed", collection, int64(report.Failed()))
			o.metrics.RecordBatches(int64(report.Batches))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) transition(res *Result, state State) {
	o.log.Info().Str("from", string(res.State)).Str("to", string(state)).Msg("pipeline state changed")
	res.State = state
	o.status.Set(state)
}

func (o *Orchestrator) failed(res *Result, start time.Time, err error) (*Result, error) {
	o.log.Error().Err(err).Str("stage", string(res.State)).Msg("migration failed")
	res.State = StateFailed
	res.Err = err
	res.Duration = time.Since(start)
	o.status.Fail(err)
	return res, err
}
