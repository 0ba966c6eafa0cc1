package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/inventory/internal/logging"
)

// CategoryWorkflow creates and updates categories while keeping the
// normalized name unique.
type CategoryWorkflow struct {
	store CategoryStore
	now   func() time.Time
}

// NewCategoryWorkflow returns a workflow writing to store.
func NewCategoryWorkflow(store CategoryStore) *CategoryWorkflow {
	return &CategoryWorkflow{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a category unless one with the same normalized name exists,
// in which case the result is StateRedirected and carries that category.
// A different name that encodes to a taken URL segment is StateColliding.
//
// A non-empty errs short-circuits to StateRejected without touching the store.
func (w *CategoryWorkflow) Create(ctx context.Context, in CategoryInput, errs []FieldError) (CategoryResult, error) {
	if len(errs) > 0 {
		return CategoryResult{State: StateRejected, Errors: errs}, nil
	}

	logger := logging.WithFields(ctx, "workflow", "category_create")
	key := NormalizeKey(in.Name)

	existing, err := w.store.CategoryByNormalizedName(ctx, key)
	switch {
	case err == nil:
		logger.Debug("category exists, redirecting", "id", existing.ID, "name", key)
		return CategoryResult{State: StateRedirected, Category: &existing}, nil
	case !errors.Is(err, ErrNotFound):
		return CategoryResult{State: StateInfrastructureFailure}, storeFailure("find category", err)
	}

	if res, ok, err := w.checkSegment(ctx, key, ""); !ok {
		return res, err
	}

	now := w.now()
	c := Category{
		Name:           in.Name,
		NormalizedName: key,
		Description:    in.Description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	id, err := w.store.InsertCategory(ctx, c)
	if errors.Is(err, ErrDuplicateKey) {
		// Lost the check-then-insert race to a concurrent submission.
		existing, lerr := w.store.CategoryByNormalizedName(ctx, key)
		if lerr == nil {
			return CategoryResult{State: StateRedirected, Category: &existing}, nil
		}
		if !errors.Is(lerr, ErrNotFound) {
			return CategoryResult{State: StateInfrastructureFailure}, storeFailure("find category", lerr)
		}
		return w.lostRace(ctx, key, "")
	}
	if err != nil {
		return CategoryResult{State: StateInfrastructureFailure}, storeFailure("insert category", err)
	}

	c.ID = id
	logger.Info("category created", "id", id, "name", c.Name)
	return CategoryResult{State: StatePersisted, Category: &c}, nil
}

// Update replaces the category addressed by segment.
//
// The target is resolved first; a missing target returns an error wrapping
// ErrNotFound and a zero result. Renaming onto another category's normalized
// name or URL segment yields StateColliding. Keeping the same name is not a
// collision.
func (w *CategoryWorkflow) Update(ctx context.Context, segment string, in CategoryInput, errs []FieldError) (CategoryResult, error) {
	if len(errs) > 0 {
		return CategoryResult{State: StateRejected, Errors: errs}, nil
	}

	logger := logging.WithFields(ctx, "workflow", "category_update", "segment", segment)

	target, err := resolveCategory(ctx, w.store, segment)
	if errors.Is(err, ErrNotFound) {
		return CategoryResult{}, err
	}
	if err != nil {
		return CategoryResult{State: StateInfrastructureFailure}, err
	}

	key := NormalizeKey(in.Name)
	existing, err := w.store.CategoryByNormalizedName(ctx, key)
	switch {
	case err == nil && existing.ID != target.ID:
		logger.Debug("category name collision", "conflict_id", existing.ID)
		return w.collision(existing, key), nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return CategoryResult{State: StateInfrastructureFailure}, storeFailure("find category", err)
	}
	if res, ok, err := w.checkSegment(ctx, key, target.ID); !ok {
		return res, err
	}

	updated := Category{
		ID:             target.ID,
		Name:           in.Name,
		NormalizedName: key,
		Description:    in.Description,
		CreatedAt:      target.CreatedAt,
		UpdatedAt:      w.now(),
	}

	saved, err := w.store.UpdateCategory(ctx, target.ID, updated)
	switch {
	case errors.Is(err, ErrDuplicateKey):
		return w.lostRace(ctx, key, target.ID)
	case errors.Is(err, ErrNotFound):
		return CategoryResult{}, fmt.Errorf("update category %s: %w", target.ID, err)
	case err != nil:
		return CategoryResult{State: StateInfrastructureFailure}, storeFailure("update category", err)
	}

	logger.Info("category updated", "id", saved.ID, "name", saved.Name)
	return CategoryResult{State: StatePersisted, Category: &saved}, nil
}

// checkSegment reports ok=false with StateColliding when a category other
// than selfID already owns the URL segment of key.
func (w *CategoryWorkflow) checkSegment(ctx context.Context, key, selfID string) (CategoryResult, bool, error) {
	matches, err := w.store.CategoriesByPathSegment(ctx, PathSegment(key))
	if err != nil {
		return CategoryResult{State: StateInfrastructureFailure}, false, storeFailure("find categories by segment", err)
	}
	conflict, found := firstOtherCategory(matches, selfID)
	if !found {
		return CategoryResult{}, true, nil
	}
	logging.FromContext(ctx).Debug("category segment collision", "name", key, "conflict_id", conflict.ID)
	return w.collision(conflict, key), false, nil
}

func (w *CategoryWorkflow) lostRace(ctx context.Context, key, selfID string) (CategoryResult, error) {
	res, ok, err := w.checkSegment(ctx, key, selfID)
	if !ok {
		return res, err
	}
	return CategoryResult{
		State:  StateColliding,
		Errors: []FieldError{{Field: "name", Msg: "This category name is already in use."}},
	}, nil
}

func (w *CategoryWorkflow) collision(existing Category, key string) CategoryResult {
	return CategoryResult{
		State:    StateColliding,
		Conflict: &existing,
		Errors:   []FieldError{categoryConflict(existing, key)},
	}
}
