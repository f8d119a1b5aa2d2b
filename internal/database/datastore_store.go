package database

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/datastore"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/locvowork/employee_migration/internal/domain"
)

// datastoreMaxBatch is the service limit of entities per commit.
const datastoreMaxBatch = 500

// DatastoreStore writes documents into Cloud Datastore; each collection is a kind.
type DatastoreStore struct {
	client *datastore.Client
	log    zerolog.Logger
}

// NewDatastoreStore creates a client for projectID.
func NewDatastoreStore(ctx context.Context, projectID string, log zerolog.Logger) (*DatastoreStore, error) {
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, &domain.ConnectionError{Store: "datastore", Err: err}
	}
	log.Info().Str("project", projectID).Msg("connected to datastore")
	return &DatastoreStore{client: client, log: log}, nil
}

func (s *DatastoreStore) Name() string { return "datastore" }

func (s *DatastoreStore) DeleteAll(ctx context.Context, collection string) (int64, error) {
	keys, err := s.client.GetAll(ctx, datastore.NewQuery(collection).KeysOnly(), nil)
	if err != nil {
		return 0, fmt.Errorf("list keys of %s: %w", collection, err)
	}
	for start := 0; start < len(keys); start += datastoreMaxBatch {
		end := min(start+datastoreMaxBatch, len(keys))
		if err := s.client.DeleteMulti(ctx, keys[start:end]); err != nil {
			return int64(start), fmt.Errorf("delete keys of %s: %w", collection, err)
		}
	}
	return int64(len(keys)), nil
}

// InsertMany converts docs to entities and commits them in chunks of at most 500.
// Documents that cannot be converted are reported as failures without being sent.
func (s *DatastoreStore) InsertMany(ctx context.Context, collection string, docs []domain.Document) (int, error) {
	var failures []domain.WriteFailure
	keys := make([]*datastore.Key, 0, len(docs))
	entities := make([]datastore.PropertyList, 0, len(docs))
	positions := make([]int, 0, len(docs))

	for i, doc := range docs {
		props, err := ToPropertyList(doc)
		if err != nil {
			failures = append(failures, domain.WriteFailure{Index: i, DocumentID: doc.DocumentID(), Reason: err.Error()})
			continue
		}
		keys = append(keys, documentKey(collection, doc))
		entities = append(entities, props)
		positions = append(positions, i)
	}

	inserted := 0
	for start := 0; start < len(entities); start += datastoreMaxBatch {
		end := min(start+datastoreMaxBatch, len(entities))
		_, err := s.client.PutMulti(ctx, keys[start:end], entities[start:end])
		if err == nil {
			inserted += end - start
			continue
		}

		var multi datastore.MultiError
		if !errors.As(err, &multi) {
			return inserted, fmt.Errorf("put entities of %s: %w", collection, err)
		}
		for j, e := range multi {
			if e == nil {
				inserted++
				continue
			}
			pos := positions[start+j]
			failures = append(failures, domain.WriteFailure{Index: pos, DocumentID: docs[pos].DocumentID(), Reason: e.Error()})
		}
	}

	if len(failures) > 0 {
		return inserted, &domain.PartialWriteError{Collection: collection, Failures: failures}
	}
	return inserted, nil
}

func (s *DatastoreStore) Close(context.Context) error {
	return s.client.Close()
}

func documentKey(kind string, doc domain.Document) *datastore.Key {
	if id := doc.DocumentID(); id != "" {
		return datastore.NameKey(kind, id, nil)
	}
	return datastore.IncompleteKey(kind, nil)
}

// ToPropertyList converts doc into datastore properties through its BSON form,
// so nested arrays become array values and embedded records become entity values.
func ToPropertyList(doc domain.Document) (datastore.PropertyList, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return toProperties(d)
}

func toProperties(d bson.D) (datastore.PropertyList, error) {
	props := make(datastore.PropertyList, 0, len(d))
	for _, e := range d {
		v, err := toDatastoreValue(e.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", e.Key, err)
		}
		p := datastore.Property{Name: e.Key, Value: v}
		switch v.(type) {
		case *datastore.Entity, []interface{}:
			p.NoIndex = true
		}
		props = append(props, p)
	}
	return props, nil
}

func toDatastoreValue(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string, bool, int64, float64:
		return val, nil
	case int32:
		return int64(val), nil
	case primitive.DateTime:
		return val.Time().UTC(), nil
	case bson.D:
		props, err := toProperties(val)
		if err != nil {
			return nil, err
		}
		return &datastore.Entity{Properties: props}, nil
	case bson.A:
		out := make([]interface{}, len(val))
		for i, item := range val {
			converted, err := toDatastoreValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
