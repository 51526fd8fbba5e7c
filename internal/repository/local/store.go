// Package local implements the repository contract in memory, persisting a
// JSON snapshot of every collection to a local SQLite file. It backs the
// offline and demo mode.
package local

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/lovableswim/swim-api/internal/repository"
)

// Options configures Open.
type Options struct {
	// Path of the SQLite snapshot file. Empty keeps everything in memory.
	Path string
	// Seed is applied when the loaded store has no users.
	Seed   *Seed
	Logger *zap.Logger
}

// Store is the local repository.Store. Writers clone the state, apply the
// change, persist the touched collections and then swap the clone in, all
// under one mutex, so every write is atomic.
type Store struct {
	repos

	mu       sync.Mutex
	state    *state
	snapshot *snapshot
	logger   *zap.Logger
}

var _ repository.Store = (*Store)(nil)

// NewMemory returns an empty store without persistence.
func NewMemory() *Store {
	return newStore(nil)
}

func newStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{state: newState(), logger: logger}
	s.repos = repos{v: &view{root: s}}
	return s
}

// Open loads the snapshot at opts.Path and seeds an empty store.
func Open(ctx context.Context, opts Options) (*Store, error) {
	s := newStore(opts.Logger)

	if opts.Path != "" {
		snap, err := openSnapshot(ctx, opts.Path)
		if err != nil {
			return nil, err
		}
		entries, err := snap.load(ctx)
		if err != nil {
			_ = snap.close()
			return nil, err
		}
		for key, raw := range entries {
			if err := s.state.decode(key, raw); err != nil {
				s.logger.Warn("skipping unreadable snapshot collection", zap.String("key", key), zap.Error(err))
			}
		}
		s.snapshot = snap
	}

	if opts.Seed != nil && len(s.state.users) == 0 {
		next := s.state.clone()
		opts.Seed.apply(next)
		if err := s.persist(ctx, next, allKeys...); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("persist seed: %w", err)
		}
		s.state = next
		s.logger.Info("local store seeded", zap.Int("users", len(next.users)))
	}

	return s, nil
}

// WithinTx implements repository.Store. fn must only use the store it is
// given; calling the outer store from inside fn blocks.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txState{state: s.state.clone(), dirty: map[string]struct{}{}}
	if err := fn(&txStore{repos: repos{v: &view{root: s, tx: tx}}}); err != nil {
		return err
	}
	if len(tx.dirty) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tx.dirty))
	for key := range tx.dirty {
		keys = append(keys, key)
	}
	if err := s.persist(ctx, tx.state, keys...); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// Ping checks the snapshot file when persistence is enabled.
func (s *Store) Ping(ctx context.Context) error {
	if s.snapshot == nil {
		return nil
	}
	return s.snapshot.db.PingContext(ctx)
}

// Close releases the snapshot file.
func (s *Store) Close() error {
	if s.snapshot == nil {
		return nil
	}
	return s.snapshot.close()
}

// persist must be called with s.mu held.
func (s *Store) persist(ctx context.Context, st *state, keys ...string) error {
	if s.snapshot == nil {
		return nil
	}
	entries := make(map[string][]byte, len(keys))
	for _, key := range keys {
		raw, err := st.encode(key)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		entries[key] = raw
	}
	return s.snapshot.save(ctx, entries)
}

type txState struct {
	state *state
	dirty map[string]struct{}
}

// view routes repository calls to the committed state or to a transaction.
type view struct {
	root *Store
	tx   *txState
}

func (v *view) read(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx.state)
	}
	v.root.mu.Lock()
	defer v.root.mu.Unlock()
	return fn(v.root.state)
}

func (v *view) write(ctx context.Context, fn func(st *state) error, keys ...string) error {
	if v.tx != nil {
		if err := fn(v.tx.state); err != nil {
			return err
		}
		for _, key := range keys {
			v.tx.dirty[key] = struct{}{}
		}
		return nil
	}

	root := v.root
	root.mu.Lock()
	defer root.mu.Unlock()
	next := root.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := root.persist(ctx, next, keys...); err != nil {
		return err
	}
	root.state = next
	return nil
}

type repos struct {
	v *view
}

func (r repos) Users() repository.UserRepository { return &userRepository{v: r.v} }
func (r repos) ClassTypes() repository.ClassTypeRepository { return &classTypeRepository{v: r.v} }
func (r repos) Sessions() repository.SessionRepository { return &sessionRepository{v: r.v} }
func (r repos) Packages() repository.PackageRepository { return &packageRepository{v: r.v} }
func (r repos) Purchases() repository.PurchaseRepository { return &purchaseRepository{v: r.v} }
func (r repos) Availability() repository.AvailabilityRepository { return &availabilityRepository{v: r.v} }
func (r repos) Blockouts() repository.BlockoutRepository { return &blockoutRepository{v: r.v} }
func (r repos) Progress() repository.ProgressRepository { return &progressRepository{v: r.v} }
func (r repos) Settings() repository.SettingsRepository { return &settingsRepository{v: r.v} }

type txStore struct {
	repos
}

func (t *txStore) WithinTx(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

func (t *txStore) Ping(context.Context) error { return nil }

func (t *txStore) Close() error { return nil }
