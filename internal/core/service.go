package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/inventory/internal/logging"
)

// Service is the entry point the web layer uses for every inventory
// operation. Writes go through the workflows; reads and deletes are direct.
type Service struct {
	store      Store
	Categories *CategoryWorkflow
	Items      *ItemWorkflow
}

// NewService wires both workflows to store.
func NewService(store Store) *Service {
	return &Service{
		store:      store,
		Categories: NewCategoryWorkflow(store),
		Items:      NewItemWorkflow(store, store),
	}
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return storeFailure("ping", err)
	}
	return nil
}

// ListCategories returns every category sorted by name.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, storeFailure("list categories", err)
	}
	sort.SliceStable(cats, func(i, j int) bool {
		return strings.ToLower(cats[i].Name) < strings.ToLower(cats[j].Name)
	})
	return cats, nil
}

// ResolveCategory returns the category addressed by a URL segment.
func (s *Service) ResolveCategory(ctx context.Context, segment string) (Category, error) {
	return resolveCategory(ctx, s.store, segment)
}

// CategoryDetail returns the category addressed by segment and its items.
func (s *Service) CategoryDetail(ctx context.Context, segment string) (Category, []Item, error) {
	c, err := resolveCategory(ctx, s.store, segment)
	if err != nil {
		return Category{}, nil, err
	}
	items, err := s.store.ItemsByCategory(ctx, c.ID)
	if err != nil {
		return Category{}, nil, storeFailure("list category items", err)
	}
	sortItems(items)
	return c, items, nil
}

// DeleteCategory removes the category addressed by segment.
//
// Categories still referenced by items are not deleted: the call returns an
// error wrapping ErrCategoryInUse together with the blocking items.
func (s *Service) DeleteCategory(ctx context.Context, segment string) ([]Item, error) {
	c, err := resolveCategory(ctx, s.store, segment)
	if err != nil {
		return nil, err
	}

	items, err := s.store.ItemsByCategory(ctx, c.ID)
	if err != nil {
		return nil, storeFailure("list category items", err)
	}
	if len(items) > 0 {
		sortItems(items)
		return items, fmt.Errorf("delete category %q (%d items): %w", c.Name, len(items), ErrCategoryInUse)
	}

	if err := s.store.DeleteCategory(ctx, c.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("delete category %s: %w", c.ID, err)
		}
		return nil, storeFailure("delete category", err)
	}

	logging.FromContext(ctx).Info("category deleted", "id", c.ID, "name", c.Name)
	return nil, nil
}

// ListItems returns every item sorted by name.
func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, storeFailure("list items", err)
	}
	sortItems(items)
	return items, nil
}

// ResolveItem returns the item addressed by a URL segment.
func (s *Service) ResolveItem(ctx context.Context, segment string) (Item, error) {
	return resolveItem(ctx, s.store, segment)
}

// ItemDetail returns the item addressed by segment and its category.
// A dangling category reference yields a zero Category rather than an error.
func (s *Service) ItemDetail(ctx context.Context, segment string) (Item, Category, error) {
	it, err := resolveItem(ctx, s.store, segment)
	if err != nil {
		return Item{}, Category{}, err
	}
	c, err := s.store.CategoryByID(ctx, it.CategoryID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Item{}, Category{}, storeFailure("find category", err)
	}
	return it, c, nil
}

// DeleteItem removes the item addressed by segment.
func (s *Service) DeleteItem(ctx context.Context, segment string) error {
	it, err := resolveItem(ctx, s.store, segment)
	if err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, it.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete item %s: %w", it.ID, err)
		}
		return storeFailure("delete item", err)
	}

	logging.FromContext(ctx).Info("item deleted", "id", it.ID, "sku", it.SKU)
	return nil
}

func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}
