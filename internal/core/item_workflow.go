package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/inventory/internal/logging"
)

// ItemWorkflow creates and updates items. Each submission moves through
// validation, the category reference check and the SKU uniqueness check
// before at most one write.
type ItemWorkflow struct {
	categories CategoryStore
	items      ItemStore
	now        func() time.Time
}

// NewItemWorkflow returns a workflow reading categories and writing items.
func NewItemWorkflow(categories CategoryStore, items ItemStore) *ItemWorkflow {
	return &ItemWorkflow{
		categories: categories,
		items:      items,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new item. Any existing item with the same normalized SKU
// or the same URL segment is a collision.
func (w *ItemWorkflow) Create(ctx context.Context, in ItemInput, errs []FieldError) (ItemResult, error) {
	if len(errs) > 0 {
		return ItemResult{State: StateRejected, Errors: errs}, nil
	}

	logger := logging.WithFields(ctx, "workflow", "item_create")

	if res, ok, err := w.checkCategory(ctx, in.CategoryID); !ok {
		return res, err
	}

	key := NormalizeKey(in.SKU)
	if res, ok, err := w.checkSKU(ctx, key, ""); !ok {
		return res, err
	}

	now := w.now()
	it := buildItem(in, key)
	it.CreatedAt = now
	it.UpdatedAt = now

	id, err := w.items.InsertItem(ctx, it)
	if errors.Is(err, ErrDuplicateKey) {
		return w.lostRace(ctx, key, "")
	}
	if errors.Is(err, ErrReferenceNotFound) {
		// The category went away after the reference check.
		return ItemResult{State: StateReferenceMissing, Errors: []FieldError{missingCategory(in.CategoryID)}}, nil
	}
	if err != nil {
		return ItemResult{State: StateInfrastructureFailure}, storeFailure("insert item", err)
	}

	it.ID = id
	logger.Info("item created", "id", id, "sku", it.SKU, "category_id", it.CategoryID)
	return ItemResult{State: StatePersisted, Item: &it}, nil
}

// Update replaces the item addressed by segment, carrying its id forward.
// The SKU may stay the same (self-match) or move to an unused one.
func (w *ItemWorkflow) Update(ctx context.Context, segment string, in ItemInput, errs []FieldError) (ItemResult, error) {
	if len(errs) > 0 {
		return ItemResult{State: StateRejected, Errors: errs}, nil
	}

	logger := logging.WithFields(ctx, "workflow", "item_update", "segment", segment)

	target, err := resolveItem(ctx, w.items, segment)
	if errors.Is(err, ErrNotFound) {
		return ItemResult{}, err
	}
	if err != nil {
		return ItemResult{State: StateInfrastructureFailure}, err
	}

	if res, ok, err := w.checkCategory(ctx, in.CategoryID); !ok {
		return res, err
	}

	key := NormalizeKey(in.SKU)
	if res, ok, err := w.checkSKU(ctx, key, target.ID); !ok {
		return res, err
	}

	it := buildItem(in, key)
	it.ID = target.ID
	it.CreatedAt = target.CreatedAt
	it.UpdatedAt = w.now()

	saved, err := w.items.UpdateItem(ctx, target.ID, it)
	switch {
	case errors.Is(err, ErrDuplicateKey):
		return w.lostRace(ctx, key, target.ID)
	case errors.Is(err, ErrReferenceNotFound):
		return ItemResult{State: StateReferenceMissing, Errors: []FieldError{missingCategory(in.CategoryID)}}, nil
	case errors.Is(err, ErrNotFound):
		return ItemResult{}, fmt.Errorf("update item %s: %w", target.ID, err)
	case err != nil:
		return ItemResult{State: StateInfrastructureFailure}, storeFailure("update item", err)
	}

	logger.Info("item updated", "id", saved.ID, "sku", saved.SKU)
	return ItemResult{State: StatePersisted, Item: &saved}, nil
}

// checkCategory reports ok=false with the terminal result when the
// referenced category is missing or the lookup failed.
func (w *ItemWorkflow) checkCategory(ctx context.Context, id string) (ItemResult, bool, error) {
	_, err := w.categories.CategoryByID(ctx, id)
	switch {
	case err == nil:
		return ItemResult{}, true, nil
	case errors.Is(err, ErrNotFound):
		logging.FromContext(ctx).Debug("item references missing category", "category_id", id)
		return ItemResult{
			State:  StateReferenceMissing,
			Errors: []FieldError{missingCategory(id)},
		}, false, nil
	default:
		return ItemResult{State: StateInfrastructureFailure}, false, storeFailure("find category", err)
	}
}

// checkSKU reports ok=false with StateColliding when an item other than
// selfID already holds key or its URL segment. On update a match set is
// acceptable only when it is empty or holds exactly the item being updated.
func (w *ItemWorkflow) checkSKU(ctx context.Context, key, selfID string) (ItemResult, bool, error) {
	matches, err := w.items.ItemsByNormalizedSKU(ctx, key)
	if err != nil {
		return ItemResult{State: StateInfrastructureFailure}, false, storeFailure("find items by sku", err)
	}
	if conflict, found := conflictIn(matches, selfID); found {
		logging.FromContext(ctx).Debug("sku collision", "sku", key, "conflict_id", conflict.ID)
		return collidingItem(conflict, key), false, nil
	}

	matches, err = w.items.ItemsByPathSegment(ctx, PathSegment(key))
	if err != nil {
		return ItemResult{State: StateInfrastructureFailure}, false, storeFailure("find items by segment", err)
	}
	if conflict, found := conflictIn(matches, selfID); found {
		logging.FromContext(ctx).Debug("sku segment collision", "sku", key, "conflict_id", conflict.ID)
		return collidingItem(conflict, key), false, nil
	}
	return ItemResult{}, true, nil
}

// conflictIn picks the item that blocks selfID from using a key.
func conflictIn(matches []Item, selfID string) (Item, bool) {
	if len(matches) == 0 {
		return Item{}, false
	}
	if selfID != "" && len(matches) == 1 && matches[0].ID == selfID {
		return Item{}, false
	}
	if conflict, ok := firstOther(matches, selfID); ok {
		return conflict, true
	}
	// Several rows share the key and all of them are selfID; report the
	// first so the store anomaly surfaces.
	return matches[0], true
}

func (w *ItemWorkflow) lostRace(ctx context.Context, key, selfID string) (ItemResult, error) {
	matches, err := w.items.ItemsByPathSegment(ctx, PathSegment(key))
	if err != nil {
		return ItemResult{State: StateInfrastructureFailure}, storeFailure("find items by segment", err)
	}
	conflict, ok := firstOther(matches, selfID)
	if !ok {
		return ItemResult{State: StateColliding, Errors: []FieldError{{Field: "sku", Msg: "This SKU is already in use."}}}, nil
	}
	return collidingItem(conflict, key), nil
}

func collidingItem(conflict Item, key string) ItemResult {
	return ItemResult{
		State:    StateColliding,
		Conflict: &conflict,
		Errors:   []FieldError{skuConflict(conflict, key)},
	}
}

func buildItem(in ItemInput, key string) Item {
	return Item{
		Name:          in.Name,
		SKU:           in.SKU,
		NormalizedSKU: key,
		Description:   in.Description,
		Quantity:      in.Quantity,
		Price:         in.Price,
		Weight:        in.Weight,
		CategoryID:    in.CategoryID,
	}
}
