// Package securestore persists small secrets (the session token) on the
// local device. Backends are interchangeable behind Store; Sealed adds age
// encryption on top of any of them.
package securestore

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by Get when the key has never been set or was deleted.
var ErrNotFound = errors.New("securestore: key not found")

// Store is a string key/value store for device secrets.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Options selects and configures a backend.
type Options struct {
	Backend      string // file, sqlite or memory
	Path         string
	Encrypt      bool
	IdentityPath string
}

// Open builds the Store described by opts. The returned close func releases
// backend resources and is never nil.
func Open(opts Options) (Store, func() error, error) {
	var (
		store   Store
		closeFn = func() error { return nil }
	)

	switch opts.Backend {
	case "", "file":
		fs, err := NewFileStore(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		store = fs
	case "sqlite":
		db, err := NewSQLiteStore(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		store = db
		closeFn = db.Close
	case "memory":
		store = NewMemoryStore()
	default:
		return nil, nil, fmt.Errorf("securestore: unknown backend %q", opts.Backend)
	}

	if opts.Encrypt {
		identity, err := LoadOrCreateIdentity(opts.IdentityPath)
		if err != nil {
			_ = closeFn()
			return nil, nil, err
		}
		store = NewSealed(store, identity)
	}

	return store, closeFn, nil
}

// MemoryStore keeps values in process memory. Used in tests and for
// throwaway sessions.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
