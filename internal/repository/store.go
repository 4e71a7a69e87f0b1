// Package repository contains the entity stores.  A store owns the
// mapping from identity to entity for one entity type, assigns new
// identities and applies create, patch and lookup operations.  The
// services depend on the Store interface only, so a persistent backend can
// replace the in-memory implementation without touching them.
package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iliyamo/filmorate/internal/model"
)

// Store is the storage capability shared by the film and user stores.  T is
// the entity type and P the partial-update payload for it.
type Store[T any, P any] interface {
	// Create validates candidate, assigns it a fresh id and stores it.
	Create(ctx context.Context, candidate T) (T, error)
	// GetAll returns every entity ordered by id; never nil.
	GetAll(ctx context.Context) ([]T, error)
	// Get returns the entity with the given id; ok is false when absent.
	Get(ctx context.Context, id uint64) (T, bool, error)
	// Exists reports whether an entity with the given id is stored.
	Exists(ctx context.Context, id uint64) (bool, error)
	// Patch overwrites the accepted fields of an existing entity.
	Patch(ctx context.Context, patch P) (T, error)
	// Mutate resolves ids and hands the live entities to fn inside one
	// critical section.  Changes are kept only when fn returns nil.
	Mutate(ctx context.Context, ids []uint64, fn func(items []*T) error) ([]T, error)
}

// FilmStorage is the store contract for films.
type FilmStorage = Store[model.Film, model.FilmPatch]

// UserStorage is the store contract for users.
type UserStorage = Store[model.User, model.UserPatch]

// kind describes how MemStore handles one entity type.
type kind[T any, P any] struct {
	name    string
	setID   func(*T, uint64)
	clone   func(T) T
	prepare func(*T) error
	patchID func(*P) *uint64
	apply   func(stored *T, patch *P) []string
}

// MemStore is an in-memory Store guarded by a single RWMutex.  Ids come
// from a counter owned by the store and are never reused.
type MemStore[T any, P any] struct {
	mu    sync.RWMutex
	items map[uint64]*T
	next  uint64
	kind  kind[T, P]
	log   zerolog.Logger
}

func newMemStore[T any, P any](k kind[T, P], logger zerolog.Logger) *MemStore[T, P] {
	return &MemStore[T, P]{
		items: make(map[uint64]*T),
		kind:  k,
		log:   logger.With().Str("store", k.name).Logger(),
	}
}

func (s *MemStore[T, P]) Create(_ context.Context, candidate T) (T, error) {
	var zero T
	c := s.kind.clone(candidate)
	if err := s.kind.prepare(&c); err != nil {
		s.log.Warn().Err(err).Msg("create rejected")
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.kind.setID(&c, s.next)
	s.items[s.next] = &c
	s.log.Info().Uint64("id", s.next).Msg("created")
	return s.kind.clone(c), nil
}

func (s *MemStore[T, P]) GetAll(_ context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uint64, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.kind.clone(*s.items[id]))
	}
	return out, nil
}

func (s *MemStore[T, P]) Get(_ context.Context, id uint64) (T, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, false, nil
	}
	return s.kind.clone(*item), true, nil
}

func (s *MemStore[T, P]) Exists(_ context.Context, id uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok, nil
}

func (s *MemStore[T, P]) Patch(_ context.Context, patch P) (T, error) {
	var zero T
	idp := s.kind.patchID(&patch)
	if idp == nil {
		s.log.Warn().Msg("patch without id")
		return zero, model.Errorf(model.ErrMissingID, "%s id must be provided", s.kind.name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[*idp]
	if !ok {
		s.log.Warn().Uint64("id", *idp).Msg("patch target not found")
		return zero, model.NotFound(s.kind.name, *idp)
	}
	fields := s.kind.apply(item, &patch)
	s.log.Info().Uint64("id", *idp).Strs("fields", fields).Msg("patched")
	return s.kind.clone(*item), nil
}

func (s *MemStore[T, P]) Mutate(_ context.Context, ids []uint64, fn func(items []*T) error) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// fn works on copies so a failed mutation leaves the stored entities intact.
	work := make([]*T, len(ids))
	seen := make(map[uint64]*T, len(ids))
	for i, id := range ids {
		if c, ok := seen[id]; ok {
			work[i] = c
			continue
		}
		item, ok := s.items[id]
		if !ok {
			return nil, model.NotFound(s.kind.name, id)
		}
		c := s.kind.clone(*item)
		work[i] = &c
		seen[id] = &c
	}
	if err := fn(work); err != nil {
		return nil, err
	}
	out := make([]T, len(work))
	for i, item := range work {
		s.items[ids[i]] = item
		out[i] = s.kind.clone(*item)
	}
	return out, nil
}
