package benchmark

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// employeesCollection follows the document database naming of the type.
const employeesCollection = "Employees"

// mongoDeleteBatchSize caps the IDs in one DeleteMany filter. 10k uuids
// encode to roughly 470 KB.
const mongoDeleteBatchSize = 10000

// MongoStore implements DocumentStore against a MongoDB server.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection

	documents atomic.Uint64
	deleted   atomic.Uint64
	commits   atomic.Uint64
	queries   atomic.Uint64
}

// NewMongoStore connects to cfg.URL and pings the server, so an unreachable
// store fails here rather than on the first query.
func NewMongoStore(ctx context.Context, cfg StoreConfig) (DocumentStore, error) {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	database := cfg.Database
	if database == "" {
		database = DefaultDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	log.Info().
		Str("url", url).
		Str("database", database).
		Msg("Connected to MongoDB document store")

	return newMongoStore(client, client.Database(database).Collection(employeesCollection)), nil
}

func newMongoStore(client *mongo.Client, collection *mongo.Collection) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: collection,
	}
}

func (m *MongoStore) OpenSession(ctx context.Context) (Session, error) {
	if m.client == nil {
		return nil, ErrStoreClosed
	}
	return &mongoSession{store: m}, nil
}

func (m *MongoStore) Close() error {
	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect(context.Background())
	m.client = nil
	return err
}

func (m *MongoStore) GetMetrics() StoreMetrics {
	return StoreMetrics{
		DocumentCount:   m.documents.Load(),
		DeletedCount:    m.deleted.Load(),
		CommitCount:     m.commits.Load(),
		QueryCount:      m.queries.Load(),
		BackendSpecific: map[string]interface{}{"collection": employeesCollection},
	}
}

type mongoSession struct {
	store   *MongoStore
	inserts []interface{}
	deletes []string
	closed  bool
}

func (s *mongoSession) Query(ctx context.Context) iter.Seq2[*Employee, error] {
	return func(yield func(*Employee, error) bool) {
		if s.closed {
			yield(nil, ErrSessionClosed)
			return
		}
		s.store.queries.Add(1)

		cur, err := s.store.collection.Find(ctx, bson.D{})
		if err != nil {
			yield(nil, err)
			return
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			e := &Employee{}
			if err := cur.Decode(e); err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(nil, err)
		}
	}
}

func (s *mongoSession) Store(e *Employee) error {
	if s.closed {
		return ErrSessionClosed
	}
	assignID(e)
	s.inserts = append(s.inserts, e)
	return nil
}

func (s *mongoSession) Delete(e *Employee) error {
	if s.closed {
		return ErrSessionClosed
	}
	if e.ID == "" {
		return ErrDocumentNotFound
	}
	s.deletes = append(s.deletes, e.ID)
	return nil
}

// SaveChanges sends all inserts in one InsertMany (the driver splits it into
// server-sized batches) and the deletes as DeleteMany calls of at most
// mongoDeleteBatchSize IDs, keeping each $in filter far below the 16 MiB BSON
// document limit. The round trips are not atomic with respect to each other.
func (s *mongoSession) SaveChanges(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}

	if len(s.inserts) > 0 {
		res, err := s.store.collection.InsertMany(ctx, s.inserts)
		if err != nil {
			return err
		}
		s.store.documents.Add(uint64(len(res.InsertedIDs)))
	}
	for _, ids := range chunkIDs(s.deletes, mongoDeleteBatchSize) {
		filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
		res, err := s.store.collection.DeleteMany(ctx, filter)
		if err != nil {
			return err
		}
		s.store.deleted.Add(uint64(res.DeletedCount))
	}

	s.store.commits.Add(1)
	s.inserts = nil
	s.deletes = nil
	return nil
}

func (s *mongoSession) Close() error {
	s.closed = true
	s.inserts = nil
	s.deletes = nil
	return nil
}

// chunkIDs splits ids into consecutive slices of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var chunks [][]string
	for len(ids) > 0 {
		n := min(size, len(ids))
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}
	return chunks
}
