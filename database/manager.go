package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"storefront/config"
	"storefront/logger"
)

// State is the lifecycle of the process-wide store.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "initializing"
	}
}

// Manager owns the shared store. Requests that arrive before Init finishes
// get ErrNotReady instead of a nil store.
type Manager struct {
	mu       sync.RWMutex
	state    State
	store    Store
	err      error
	starting bool
}

func NewManager() *Manager {
	return &Manager{}
}

// NewReadyManager returns a manager already holding store.
func NewReadyManager(store Store) *Manager {
	m := NewManager()
	m.ready(store)
	return m
}

// Init connects to MySQL and falls back to the SQLite file when the primary
// is unreachable. It may be run in its own goroutine while the server
// starts accepting requests.
func (m *Manager) Init(ctx context.Context, cfg *config.Config) error {
	m.mu.Lock()
	if m.state != StateUninitialized || m.starting {
		m.mu.Unlock()
		return errors.New("store already initialized")
	}
	m.starting = true
	m.mu.Unlock()

	store, err := Connect(ctx, cfg)
	if err != nil {
		m.fail(err)
		return err
	}
	m.ready(store)
	return nil
}

// Connect opens the primary store or, failing that, the fallback.
func Connect(ctx context.Context, cfg *config.Config) (*SQLStore, error) {
	store, err := OpenMySQL(ctx, cfg)
	if err == nil {
		logger.Log.Info("MySQL database connected", zap.String("addr", cfg.DBHost+":"+cfg.DBPort))
		return store, nil
	}
	logger.Log.Warn("MySQL connection failed, falling back to SQLite",
		zap.Error(err), zap.String("path", cfg.SQLitePath))

	fallback, ferr := OpenSQLite(ctx, cfg.SQLitePath)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	n, ferr := fallback.SeedSampleProducts(ctx)
	if ferr != nil {
		fallback.Close()
		return nil, ferr
	}
	if n > 0 {
		logger.Log.Info("Inserted sample products", zap.Int("count", n))
	}
	logger.Log.Info("SQLite database connected", zap.String("path", cfg.SQLitePath))
	return fallback, nil
}

func (m *Manager) ready(store Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateReady
	m.store = store
	m.err = nil
	m.starting = false
}

func (m *Manager) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateFailed
	m.err = err
	m.starting = false
}

// Store returns the ready store, or an error wrapping ErrNotReady.
func (m *Manager) Store() (Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch m.state {
	case StateReady:
		return m.store, nil
	case StateFailed:
		return nil, fmt.Errorf("%w: %v", ErrNotReady, m.err)
	default:
		return nil, ErrNotReady
	}
}

// Status reports the state and, once ready, the driver name.
func (m *Manager) Status() (State, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == StateReady {
		return m.state, m.store.Driver()
	}
	return m.state, ""
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	err := m.store.Close()
	m.store = nil
	m.state = StateUninitialized
	return err
}
