package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"os"
	"sync"

	"github.com/erigontech/mdbx-go/mdbx"
	"github.com/rs/zerolog/log"
)

// MDBXStore implements DocumentStore using MDBX (libmdbx)
type MDBXStore struct {
	env    *mdbx.Env
	db     mdbx.DBI
	path   string
	mu     sync.RWMutex
	closed bool

	metrics StoreMetrics
}

// NewMDBXStore creates a new MDBX document store
func NewMDBXStore(cfg StoreConfig) (DocumentStore, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultMDBXPath
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	env, err := mdbx.NewEnv(mdbx.Default)
	if err != nil {
		return nil, fmt.Errorf("failed to create MDBX environment: %w", err)
	}

	// -1 keeps the library default for every geometry parameter
	if err := env.SetGeometry(-1, -1, -1, -1, -1, -1); err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to set geometry: %w", err)
	}
	if err := env.SetOption(mdbx.OptMaxDB, 2); err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to set max databases: %w", err)
	}

	if err := env.Open(path, uint(mdbx.EnvDefaults), 0644); err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to open MDBX environment: %w", err)
	}

	var db mdbx.DBI
	err = env.Update(func(txn *mdbx.Txn) error {
		var err error
		db, err = txn.OpenRoot(mdbx.Create)
		return err
	})
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	log.Info().Str("path", path).Msg("Opened MDBX document store")

	return &MDBXStore{
		env:  env,
		db:   db,
		path: path,
	}, nil
}

func (d *MDBXStore) OpenSession(ctx context.Context) (Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, ErrStoreClosed
	}
	return &mdbxSession{store: d}, nil
}

// Close closes the environment (this also closes the database)
func (d *MDBXStore) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.env.Close()
	return nil
}

func (d *MDBXStore) GetMetrics() StoreMetrics {
	d.mu.RLock()
	defer d.mu.RUnlock()

	metrics := d.metrics
	metrics.BackendSpecific = make(map[string]interface{})

	if !d.closed {
		if info, err := d.env.Info(nil); err == nil {
			metrics.BackendSpecific["map_size"] = info.MapSize
		}
		if stat, err := d.env.Stat(); err == nil {
			metrics.BackendSpecific["entries"] = stat.Entries
		}
	}
	return metrics
}

type mdbxSession struct {
	store   *MDBXStore
	pending pendingChanges
	closed  bool
}

// Query copies each document out of a read transaction before yielding it,
// values are only valid while the transaction is open.
func (s *mdbxSession) Query(ctx context.Context) iter.Seq2[*Employee, error] {
	return func(yield func(*Employee, error) bool) {
		if s.closed {
			yield(nil, ErrSessionClosed)
			return
		}

		d := s.store
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			yield(nil, ErrStoreClosed)
			return
		}
		d.metrics.QueryCount++

		var employees []*Employee
		err := d.env.View(func(txn *mdbx.Txn) error {
			cur, err := txn.OpenCursor(d.db)
			if err != nil {
				return err
			}
			defer cur.Close()

			k, v, err := cur.Get(employeePrefix, nil, mdbx.SetRange)
			for err == nil && bytes.HasPrefix(k, employeePrefix) {
				if err := ctx.Err(); err != nil {
					return err
				}
				e, derr := decodeEmployee(v)
				if derr != nil {
					return derr
				}
				employees = append(employees, e)
				k, v, err = cur.Get(nil, nil, mdbx.Next)
			}
			if err != nil && !mdbx.IsNotFound(err) {
				return err
			}
			return nil
		})
		d.mu.Unlock()

		if err != nil {
			yield(nil, err)
			return
		}
		for _, e := range employees {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *mdbxSession) Store(e *Employee) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.pending.store(e)
}

func (s *mdbxSession) Delete(e *Employee) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.pending.delete(e)
}

// SaveChanges applies every queued operation in one write transaction.
func (s *mdbxSession) SaveChanges(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d := s.store
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrStoreClosed
	}

	err := d.env.Update(func(txn *mdbx.Txn) error {
		for _, op := range s.pending.ops {
			if op.delete {
				if err := txn.Del(d.db, op.key, nil); err != nil && !mdbx.IsNotFound(err) {
					return err
				}
				continue
			}
			if err := txn.Put(d.db, op.key, op.value, 0); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	stored, deleted := s.pending.counts()
	d.metrics.DocumentCount += stored
	d.metrics.DeletedCount += deleted
	d.metrics.CommitCount++
	s.pending.reset()
	return nil
}

func (s *mdbxSession) Close() error {
	s.closed = true
	s.pending.reset()
	return nil
}
