package benchmark

import (
	"context"
	"errors"
	"iter"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DocumentStore defines the interface that all document backends must implement.
// It is a session factory: every unit of work goes through a Session.
type DocumentStore interface {
	// OpenSession starts a new unit of work. The caller must Close it.
	OpenSession(ctx context.Context) (Session, error)

	// Close shuts down the store and releases resources
	Close() error

	// GetMetrics returns backend-specific statistics
	GetMetrics() StoreMetrics
}

// Session batches Store and Delete calls until SaveChanges commits them.
type Session interface {
	// Query streams every employee in the collection. No filter is applied.
	Query(ctx context.Context) iter.Seq2[*Employee, error]

	// Store queues an insert and assigns e.ID when it is empty
	Store(e *Employee) error

	// Delete queues the removal of e by ID
	Delete(e *Employee) error

	// SaveChanges commits all queued mutations in one step
	SaveChanges(ctx context.Context) error

	// Close releases the session, dropping anything not saved
	Close() error
}

// StoreMetrics provides common metrics across different backends
type StoreMetrics struct {
	DocumentCount uint64 // documents written through this store
	DeletedCount  uint64 // documents deleted through this store
	CommitCount   uint64 // successful SaveChanges calls
	QueryCount    uint64 // full scans started

	// Backend-specific metrics (optional)
	BackendSpecific map[string]interface{}
}

// StoreType names a document backend
type StoreType string

const (
	StoreTypeMongo  StoreType = "mongo"
	StoreTypePebble StoreType = "pebble"
	StoreTypeMDBX   StoreType = "mdbx"
)

const (
	DefaultURL        = "mongodb://localhost:27017"
	DefaultDatabase   = "Northwind"
	DefaultPebblePath = "dbs/pebble/northwind"
	DefaultMDBXPath   = "dbs/mdbx/northwind"
)

// StoreConfig holds configuration for store creation
type StoreConfig struct {
	Type     StoreType
	URL      string // server URL, remote backends only
	Database string // database name, remote backends only
	Path     string // directory, embedded backends only; empty picks the backend default

	// InMemory keeps pebble entirely in memory (tests)
	InMemory bool
}

// Common store errors
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrStoreClosed      = errors.New("store is closed")
	ErrSessionClosed    = errors.New("session is closed")
	ErrBackendNotFound  = errors.New("store backend not found")
)

// NewDocumentStore creates a store based on the configuration
func NewDocumentStore(ctx context.Context, cfg StoreConfig) (DocumentStore, error) {
	switch cfg.Type {
	case StoreTypeMongo:
		return NewMongoStore(ctx, cfg)
	case StoreTypePebble:
		return NewPebbleStore(cfg)
	case StoreTypeMDBX:
		return NewMDBXStore(cfg)
	default:
		return nil, ErrBackendNotFound
	}
}

// Helper function to check if an error is "document not found"
func IsDocumentNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

// employeePrefix is the collection prefix used by the key-value backends.
var employeePrefix = []byte("employees/")

func employeeKey(id string) []byte {
	key := make([]byte, 0, len(employeePrefix)+len(id))
	key = append(key, employeePrefix...)
	return append(key, id...)
}

// prefixUpperBound returns the smallest key greater than every key with prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func assignID(e *Employee) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
}

// encodeEmployee is the value format of the key-value backends.
func encodeEmployee(e *Employee) ([]byte, error) {
	return gojson.Marshal(e)
}

func decodeEmployee(data []byte) (*Employee, error) {
	e := &Employee{}
	if err := gojson.Unmarshal(data, e); err != nil {
		return nil, err
	}
	return e, nil
}

// pendingChanges is the unit of work shared by the key-value backends.
// Stores and deletes are kept in call order so a store followed by a delete
// of the same ID cancels out.
type pendingChanges struct {
	ops []pendingOp
}

type pendingOp struct {
	key    []byte
	value  []byte
	delete bool
}

func (p *pendingChanges) store(e *Employee) error {
	assignID(e)
	value, err := encodeEmployee(e)
	if err != nil {
		return err
	}
	p.ops = append(p.ops, pendingOp{key: employeeKey(e.ID), value: value})
	return nil
}

func (p *pendingChanges) delete(e *Employee) error {
	if e.ID == "" {
		return ErrDocumentNotFound
	}
	p.ops = append(p.ops, pendingOp{key: employeeKey(e.ID), delete: true})
	return nil
}

func (p *pendingChanges) counts() (stored, deleted uint64) {
	for _, op := range p.ops {
		if op.delete {
			deleted++
		} else {
			stored++
		}
	}
	return stored, deleted
}

func (p *pendingChanges) reset() {
	p.ops = nil
}
