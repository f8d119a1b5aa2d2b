package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/locvowork/employee_migration/internal/domain"
)

// MongoStore writes documents into a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	log    zerolog.Logger
}

// NewMongoStore connects to uri and pings the primary.
func NewMongoStore(ctx context.Context, uri, database string, log zerolog.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &domain.ConnectionError{Store: "mongo", Err: err}
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, &domain.ConnectionError{Store: "mongo", Err: err}
	}

	log.Info().Str("database", database).Msg("connected to mongo")
	return &MongoStore{client: client, db: client.Database(database), log: log}, nil
}

func (s *MongoStore) Name() string { return "mongo" }

func (s *MongoStore) DeleteAll(ctx context.Context, collection string) (int64, error) {
	res, err := s.db.Collection(collection).DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return res.DeletedCount, nil
}

// InsertMany performs an unordered insert so one rejected document does not stop the batch.
func (s *MongoStore) InsertMany(ctx context.Context, collection string, docs []domain.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	payload := make([]interface{}, len(docs))
	for i, d := range docs {
		payload[i] = d
	}

	_, err := s.db.Collection(collection).InsertMany(ctx, payload, options.InsertMany().SetOrdered(false))
	return classifyInsertError(collection, docs, err)
}

// classifyInsertError turns per-document write errors into a PartialWriteError.
// A write concern error or any other failure is returned as fatal.
func classifyInsertError(collection string, docs []domain.Document, err error) (int, error) {
	if err == nil {
		return len(docs), nil
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) && bwe.WriteConcernError == nil && len(bwe.WriteErrors) > 0 {
		failures := writeFailures(docs, bwe)
		return len(docs) - len(failures), &domain.PartialWriteError{Collection: collection, Failures: failures}
	}
	return 0, fmt.Errorf("insert documents: %w", err)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func writeFailures(docs []domain.Document, bwe mongo.BulkWriteException) []domain.WriteFailure {
	failures := make([]domain.WriteFailure, 0, len(bwe.WriteErrors))
	for _, we := range bwe.WriteErrors {
		f := domain.WriteFailure{Index: we.Index, Reason: we.Message}
		if we.Index >= 0 && we.Index < len(docs) {
			f.DocumentID = docs[we.Index].DocumentID()
		}
		failures = append(failures, f)
	}
	return failures
}
