// Package memstore is an in-process core.Store used for local runs and
// handler tests. Records live in maps guarded by a single RWMutex.
//
// Unlike the database backends it has no unique index, so two concurrent
// submissions can both pass the uniqueness check and both be stored.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/inventory/internal/core"
)

// Store implements core.Store in memory.
type Store struct {
	mu         sync.RWMutex
	categories map[string]core.Category
	items      map[string]core.Item
	order      map[string]int
	seq        int
	closed     bool
}

var _ core.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		categories: make(map[string]core.Category),
		items:      make(map[string]core.Item),
		order:      make(map[string]int),
	}
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memstore: %w: %w", core.ErrStoreUnavailable, err)
	}
	if s.closed {
		return fmt.Errorf("memstore closed: %w", core.ErrStoreUnavailable)
	}
	return nil
}

// track records insertion order so listings and lookups are deterministic.
func (s *Store) track(id string) {
	s.seq++
	s.order[id] = s.seq
}

func (s *Store) byOrder(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return s.order[ids[i]] < s.order[ids[j]] })
}

func (s *Store) categoriesWhere(match func(core.Category) bool) []core.Category {
	var ids []string
	for id, c := range s.categories {
		if match(c) {
			ids = append(ids, id)
		}
	}
	s.byOrder(ids)

	out := make([]core.Category, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.categories[id])
	}
	return out
}

// CategoryByNormalizedName returns the first category stored with key.
func (s *Store) CategoryByNormalizedName(ctx context.Context, key string) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return core.Category{}, err
	}

	hits := s.categoriesWhere(func(c core.Category) bool { return c.NormalizedName == key })
	if len(hits) == 0 {
		return core.Category{}, core.ErrNotFound
	}
	return hits[0], nil
}

// CategoriesByPathSegment returns every category whose name encodes to
// segment, in insertion order.
func (s *Store) CategoriesByPathSegment(ctx context.Context, segment string) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.categoriesWhere(func(c core.Category) bool {
		return core.PathSegment(c.NormalizedName) == segment
	}), nil
}

// CategoryByID returns the category with id.
func (s *Store) CategoryByID(ctx context.Context, id string) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return core.Category{}, err
	}

	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

// ListCategories returns categories in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	return s.categoriesWhere(func(core.Category) bool { return true }), nil
}

// InsertCategory stores c under a new id.
func (s *Store) InsertCategory(ctx context.Context, c core.Category) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return "", err
	}

	c.ID = uuid.NewString()
	s.categories[c.ID] = c
	s.track(c.ID)
	return c.ID, nil
}

// UpdateCategory replaces the category stored under id.
func (s *Store) UpdateCategory(ctx context.Context, id string, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return core.Category{}, err
	}

	if _, ok := s.categories[id]; !ok {
		return core.Category{}, core.ErrNotFound
	}
	c.ID = id
	s.categories[id] = c
	return c, nil
}

// DeleteCategory removes the category stored under id.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	if _, ok := s.categories[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.categories, id)
	delete(s.order, id)
	return nil
}

func (s *Store) itemsWhere(match func(core.Item) bool) []core.Item {
	var ids []string
	for id, it := range s.items {
		if match(it) {
			ids = append(ids, id)
		}
	}
	s.byOrder(ids)

	out := make([]core.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.items[id])
	}
	return out
}

// ItemsByNormalizedSKU returns every item stored with key.
func (s *Store) ItemsByNormalizedSKU(ctx context.Context, key string) ([]core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.itemsWhere(func(it core.Item) bool { return it.NormalizedSKU == key }), nil
}

// ItemsByPathSegment returns every item whose SKU encodes to segment.
func (s *Store) ItemsByPathSegment(ctx context.Context, segment string) ([]core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.itemsWhere(func(it core.Item) bool { return core.PathSegment(it.NormalizedSKU) == segment }), nil
}

// ItemsByCategory returns every item referencing categoryID.
func (s *Store) ItemsByCategory(ctx context.Context, categoryID string) ([]core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.itemsWhere(func(it core.Item) bool { return it.CategoryID == categoryID }), nil
}

// ItemByID returns the item with id.
func (s *Store) ItemByID(ctx context.Context, id string) (core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return core.Item{}, err
	}

	it, ok := s.items[id]
	if !ok {
		return core.Item{}, core.ErrNotFound
	}
	return it, nil
}

// ListItems returns items in insertion order.
func (s *Store) ListItems(ctx context.Context) ([]core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.itemsWhere(func(core.Item) bool { return true }), nil
}

// InsertItem stores it under a new id.
func (s *Store) InsertItem(ctx context.Context, it core.Item) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return "", err
	}

	it.ID = uuid.NewString()
	s.items[it.ID] = it
	s.track(it.ID)
	return it.ID, nil
}

// UpdateItem replaces the item stored under id.
func (s *Store) UpdateItem(ctx context.Context, id string, it core.Item) (core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return core.Item{}, err
	}

	if _, ok := s.items[id]; !ok {
		return core.Item{}, core.ErrNotFound
	}
	it.ID = id
	s.items[id] = it
	return it, nil
}

// DeleteItem removes the item stored under id.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	if _, ok := s.items[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.items, id)
	delete(s.order, id)
	return nil
}

// Ping reports whether the store is still open.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check(ctx)
}

// Close marks the store closed. Later calls fail with ErrStoreUnavailable.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
