package benchmark

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/rs/zerolog/log"
)

// PebbleStore implements DocumentStore on top of an embedded Pebble instance.
// Each employee is one JSON value under "employees/<id>".
type PebbleStore struct {
	db *pebble.DB

	documents atomic.Uint64
	deleted   atomic.Uint64
	commits   atomic.Uint64
	queries   atomic.Uint64
}

// NewPebbleStore opens (or creates) a Pebble store at cfg.Path
func NewPebbleStore(cfg StoreConfig) (DocumentStore, error) {
	opts := &pebble.Options{}
	path := cfg.Path
	if cfg.InMemory {
		opts.FS = vfs.NewMem()
		path = ""
	} else if path == "" {
		path = DefaultPebblePath
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("path", path).
		Bool("in_memory", cfg.InMemory).
		Msg("Opened Pebble document store")

	return &PebbleStore{db: db}, nil
}

// OpenSession implements DocumentStore.OpenSession for Pebble
func (p *PebbleStore) OpenSession(ctx context.Context) (Session, error) {
	if p.db == nil {
		return nil, ErrStoreClosed
	}
	return &pebbleSession{store: p}, nil
}

// Close implements DocumentStore.Close for Pebble
func (p *PebbleStore) Close() error {
	var err error
	if p.db != nil {
		err = p.db.Close()
		p.db = nil
	}
	return err
}

// GetMetrics implements DocumentStore.GetMetrics for Pebble
func (p *PebbleStore) GetMetrics() StoreMetrics {
	metrics := StoreMetrics{
		DocumentCount:   p.documents.Load(),
		DeletedCount:    p.deleted.Load(),
		CommitCount:     p.commits.Load(),
		QueryCount:      p.queries.Load(),
		BackendSpecific: make(map[string]interface{}),
	}

	if p.db == nil {
		return metrics
	}

	pebbleMetrics := p.db.Metrics()
	metrics.BackendSpecific["pebble"] = map[string]interface{}{
		"memtable_size":    pebbleMetrics.MemTable.Size,
		"compaction_count": pebbleMetrics.Compact.Count,
		"flush_count":      pebbleMetrics.Flush.Count,
		"wal_bytes_in":     pebbleMetrics.WAL.BytesIn,
	}
	return metrics
}

type pebbleSession struct {
	store   *PebbleStore
	pending pendingChanges
	closed  bool
}

func (s *pebbleSession) Query(ctx context.Context) iter.Seq2[*Employee, error] {
	return func(yield func(*Employee, error) bool) {
		if s.closed {
			yield(nil, ErrSessionClosed)
			return
		}
		if s.store.db == nil {
			yield(nil, ErrStoreClosed)
			return
		}
		s.store.queries.Add(1)

		it, err := s.store.db.NewIterWithContext(ctx, &pebble.IterOptions{
			LowerBound: employeePrefix,
			UpperBound: prefixUpperBound(employeePrefix),
		})
		if err != nil {
			yield(nil, err)
			return
		}
		defer it.Close()

		for valid := it.First(); valid; valid = it.Next() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			e, err := decodeEmployee(it.Value())
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := it.Error(); err != nil {
			yield(nil, err)
		}
	}
}

func (s *pebbleSession) Store(e *Employee) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.pending.store(e)
}

func (s *pebbleSession) Delete(e *Employee) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.pending.delete(e)
}

// SaveChanges writes every queued operation in a single synced batch.
func (s *pebbleSession) SaveChanges(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.store.db == nil {
		return ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := s.store.db.NewBatch()
	defer batch.Close()

	for _, op := range s.pending.ops {
		var err error
		if op.delete {
			err = batch.Delete(op.key, nil)
		} else {
			err = batch.Set(op.key, op.value, nil)
		}
		if err != nil {
			return err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return err
	}

	stored, deleted := s.pending.counts()
	s.store.documents.Add(stored)
	s.store.deleted.Add(deleted)
	s.store.commits.Add(1)
	s.pending.reset()
	return nil
}

func (s *pebbleSession) Close() error {
	s.closed = true
	s.pending.reset()
	return nil
}
