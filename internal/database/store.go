package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/locvowork/employee_migration/internal/config"
	"github.com/locvowork/employee_migration/internal/domain"
)

// NewDocumentStore opens the destination selected by cfg.DestKind.
func NewDocumentStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.DocumentStore, error) {
	log = log.With().Str("store", cfg.DestKind).Logger()
	var (
		store domain.DocumentStore
		err   error
	)
	switch cfg.DestKind {
	case config.DestMongo:
		store, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	case config.DestElastic:
		store, err = NewElasticStore(ElasticConfig{
			URL:         cfg.ElasticURL,
			Username:    cfg.ElasticUsername,
			Password:    cfg.ElasticPassword,
			Healthcheck: true,
		}, log)
	case config.DestDatastore:
		store, err = NewDatastoreStore(ctx, cfg.DatastoreProjectID, log)
	case config.DestMemory:
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported destination %q", cfg.DestKind)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
