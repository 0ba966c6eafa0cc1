package core

import (
	"context"
	"errors"
	"fmt"
)

// storeFailure wraps err so errors.Is(err, ErrStoreUnavailable) holds even
// when a backend returned a bare driver error.
func storeFailure(op string, err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// resolveCategory finds the category a URL segment points at. Workflows keep
// segments unique, so a second match only exists in data written around them;
// the oldest record wins.
func resolveCategory(ctx context.Context, store CategoryStore, segment string) (Category, error) {
	cats, err := store.CategoriesByPathSegment(ctx, SegmentKey(segment))
	if err != nil {
		return Category{}, storeFailure("resolve category", err)
	}
	if len(cats) == 0 {
		return Category{}, fmt.Errorf("category %q: %w", segment, ErrNotFound)
	}
	return cats[0], nil
}

// resolveItem finds the item a URL segment points at. If a race left several
// items on one segment, the first one the store returns wins.
func resolveItem(ctx context.Context, store ItemStore, segment string) (Item, error) {
	items, err := store.ItemsByPathSegment(ctx, SegmentKey(segment))
	if err != nil {
		return Item{}, storeFailure("resolve item", err)
	}
	if len(items) == 0 {
		return Item{}, fmt.Errorf("item %q: %w", segment, ErrNotFound)
	}
	return items[0], nil
}

// firstOther returns the first item whose id differs from selfID. An empty
// selfID (create) treats every match as a conflict.
func firstOther(matches []Item, selfID string) (Item, bool) {
	for _, it := range matches {
		if selfID == "" || it.ID != selfID {
			return it, true
		}
	}
	return Item{}, false
}

// firstOtherCategory is firstOther for categories.
func firstOtherCategory(matches []Category, selfID string) (Category, bool) {
	for _, c := range matches {
		if selfID == "" || c.ID != selfID {
			return c, true
		}
	}
	return Category{}, false
}

// categoryConflict explains why key cannot be used. A match on the exact
// name and a match on the URL segment alone get different wording.
func categoryConflict(existing Category, key string) FieldError {
	msg := "This category name is already in use by"
	if existing.NormalizedName != key {
		msg = "This category name has the same link as"
	}
	return FieldError{
		Field:    "name",
		Msg:      msg,
		Link:     existing.URL(),
		LinkText: existing.Name,
	}
}

func skuConflict(existing Item, key string) FieldError {
	msg := "This SKU is already in use by"
	if existing.NormalizedSKU != key {
		msg = "This SKU has the same link as"
	}
	return FieldError{
		Field:    "sku",
		Msg:      msg,
		Link:     existing.URL(),
		LinkText: existing.Name,
	}
}

func missingCategory(id string) FieldError {
	return FieldError{
		Field: "category",
		Msg:   fmt.Sprintf("Category %q does not exist.", id),
	}
}
