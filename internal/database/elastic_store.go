package database

import (
	"context"
	"fmt"

	"github.com/olivere/elastic/v7"
	"github.com/rs/zerolog"

	"github.com/locvowork/employee_migration/internal/domain"
)

// ElasticConfig holds the Elasticsearch connection settings.
type ElasticConfig struct {
	URL      string
	Username string
	Password string
	// Healthcheck pings the cluster on connect.
	Healthcheck bool
}

// ElasticStore writes documents into Elasticsearch; each collection is an index.
type ElasticStore struct {
	client *elastic.Client
	log    zerolog.Logger
}

// NewElasticStore creates a new client for Elasticsearch 7.x.
func NewElasticStore(cfg ElasticConfig, log zerolog.Logger) (*ElasticStore, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.URL),
		elastic.SetSniff(false), // Essential when using Docker or cloud
		elastic.SetHealthcheck(cfg.Healthcheck),
	}
	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}

	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, &domain.ConnectionError{Store: "elastic", Err: err}
	}

	log.Info().Str("url", cfg.URL).Msg("connected to elasticsearch")
	return &ElasticStore{client: client, log: log}, nil
}

func (s *ElasticStore) Name() string { return "elastic" }

// DeleteAll removes every document of the index. A missing index counts as empty.
func (s *ElasticStore) DeleteAll(ctx context.Context, collection string) (int64, error) {
	res, err := s.client.DeleteByQuery(collection).
		Query(elastic.NewMatchAllQuery()).
		Conflicts("proceed").
		Refresh("true").
		Do(ctx)
	if elastic.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("delete by query on %s: %w", collection, err)
	}
	return res.Deleted, nil
}

// InsertMany sends one bulk request and maps rejected items back to their batch position.
func (s *ElasticStore) InsertMany(ctx context.Context, collection string, docs []domain.Document) (int, error) {
	bulkRequest := s.client.Bulk()
	for _, doc := range docs {
		req := elastic.NewBulkIndexRequest().Index(collection).Doc(doc)
		if id := doc.DocumentID(); id != "" {
			req = req.Id(id)
		}
		bulkRequest = bulkRequest.Add(req)
	}

	if bulkRequest.NumberOfActions() == 0 {
		return 0, nil
	}

	bulkResponse, err := bulkRequest.Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("bulk index failed: %w", err)
	}
	if !bulkResponse.Errors {
		return len(docs), nil
	}

	var failures []domain.WriteFailure
	for i, item := range bulkResponse.Items {
		for _, op := range item {
			if op == nil || op.Error == nil {
				continue
			}
			f := domain.WriteFailure{Index: i, Reason: op.Error.Type + ": " + op.Error.Reason}
			if i < len(docs) {
				f.DocumentID = docs[i].DocumentID()
			}
			failures = append(failures, f)
		}
	}
	if len(failures) == 0 {
		return len(docs), nil
	}
	return len(docs) - len(failures), &domain.PartialWriteError{Collection: collection, Failures: failures}
}

func (s *ElasticStore) Close(context.Context) error {
	s.client.Stop()
	return nil
}
