package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestItemWorkflow(store *fakeStore) *ItemWorkflow {
	w := NewItemWorkflow(store, store)
	w.now = func() time.Time { return fixedNow }
	return w
}

func hammerInput(categoryID string) ItemInput {
	return ItemInput{
		Name:       "Hammer",
		SKU:        "HM-100",
		Price:      decimal.RequireFromString("9.99"),
		Quantity:   5,
		CategoryID: categoryID,
	}
}

func TestItemCreate_Scenario(t *testing.T) {
	store := newFakeStore()
	tools := store.seedCategory("Tools")
	w := newTestItemWorkflow(store)
	ctx := context.Background()

	first, err := w.Create(ctx, hammerInput(tools.ID), nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.State != StatePersisted {
		t.Fatalf("State = %v, want %v", first.State, StatePersisted)
	}
	if first.Item.NormalizedSKU != "hm-100" {
		t.Errorf("NormalizedSKU = %q, want %q", first.Item.NormalizedSKU, "hm-100")
	}
	if !first.Item.Price.Equal(decimal.RequireFromString("9.99")) {
		t.Errorf("Price = %s, want 9.99", first.Item.Price)
	}

	dup := hammerInput(tools.ID)
	dup.Name = "Claw Hammer"
	dup.SKU = "hm-100"
	second, err := w.Create(ctx, dup, nil)
	if err != nil {
		t.Fatalf("second Create() error = %v", err)
	}
	if second.State != StateColliding {
		t.Fatalf("State = %v, want %v", second.State, StateColliding)
	}
	if second.Conflict == nil || second.Conflict.ID != first.Item.ID {
		t.Errorf("Conflict = %+v, want id %q", second.Conflict, first.Item.ID)
	}
	if !errors.Is(second.Err(), ErrUniquenessConflict) {
		t.Errorf("Err() = %v, want ErrUniquenessConflict", second.Err())
	}
	if store.writes != 1 {
		t.Errorf("writes = %d, want 1", store.writes)
	}
}

func TestItemCreate_CaseInsensitiveSKU(t *testing.T) {
	store := newFakeStore()
	tools := store.seedCategory("Tools")
	existing := store.seedItem("Widget", "widget", tools.ID)
	w := newTestItemWorkflow(store)

	in := hammerInput(tools.ID)
	in.SKU = "Widget"
	res, err := w.Create(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.State != StateColliding {
		t.Fatalf("State = %v, want %v", res.State, StateColliding)
	}
	if res.Conflict.ID != existing.ID {
		t.Errorf("Conflict.ID = %q, want %q", res.Conflict.ID, existing.ID)
	}
	if store.writes != 0 {
		t.Errorf("writes = %d, want 0", store.writes)
	}
}

func TestItemCreate_MissingCategory(t *testing.T) {
	store := newFakeStore()
	w := newTestItemWorkflow(store)

	res, err := w.Create(context.Background(), hammerInput("cat-404"), nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.State != StateReferenceMissing {
		t.Fatalf("State = %v, want %v", res.State, StateReferenceMissing)
	}
	if len(res.Errors) != 1 || res.Errors[0].Field != "category" {
		t.Errorf("Errors = %+v, want one category error", res.Errors)
	}
	if !errors.Is(res.Err(), ErrReferenceNotFound) {
		t.Errorf("Err() = %v, want ErrReferenceNotFound", res.Err())
	}
	if store.writes != 0 {
		t.Errorf("writes = %d, want 0", store.writes)
	}
}

func TestItemCreate_ValidationPrecedence(t *testing.T) {
	store := newFakeStore()
	tools := store.seedCategory("Tools")
	store.seedItem("Hammer", "HM-100", tools.ID)
	w := newTestItemWorkflow(store)

	errs := []FieldError{{Field: "price", Msg: "price must be a number."}}
	res, err := w.Create(context.Background(), hammerInput(tools.ID), errs)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.State != StateRejected {
		t.Errorf("State = %v, want %v", res.State, StateRejected)
	}
	if store.calls != 0 {
		t.Errorf("store calls = %d, want 0", store.calls)
	}
}

func TestItemCreate_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failWith = errors.New("i/o timeout")
	w := newTestItemWorkflow(store)

	res, err := w.Create(context.Background(), hammerInput("cat-1"), nil)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("error = %v, want ErrStoreUnavailable", err)
	}
	if res.State != StateInfrastructureFailure {
		t.Errorf("State = %v, want %v", res.State, StateInfrastructureFailure)
	}
}

func TestItemCreate_LostInsertRace(t *testing.T) {
	store := newFakeStore()
	tools := store.seedCategory("Tools")
	var winner Item
	store.beforeWrite = func(f *fakeStore) { winner = f.seedItem("Other Hammer", "hm-100", tools.ID) }
	store.dupOnWrite = true
	w := newTestItemWorkflow(store)

	res, err := w.Create(context.Background(), hammerInput(tools.ID), nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.State != StateColliding {
		t.Fatalf("State = %v, want %v", res.State, StateColliding)
	}
	if res.Conflict == nil || res.Conflict.ID != winner.ID {
		t.Errorf("Conflict = %+v, want id %q", res.Conflict, winner.ID)
	}
}

func TestItemCreate_SharedPathSegmentCollides(t *testing.T) {
	tests := []struct {
		name      string
		existing  string
		submitted string
	}{
		{name: "underscore after space", existing: "X 1", submitted: "x_1"},
		{name: "space after underscore", existing: "x_1", submitted: "X 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			tools := store.seedCategory("Tools")
			existing := store.seedItem("Widget", tt.existing, tools.ID)
			w := newTestItemWorkflow(store)

			in := hammerInput(tools.ID)
			in.SKU = tt.submitted
			res, err := w.Create(context.Background(), in, nil)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if res.State != StateColliding {
				t.Fatalf("State = %v, want %v", res.State, StateColliding)
			}
			if res.Conflict == nil || res.Conflict.ID != existing.ID {
				t.Errorf("Conflict = %+v, want id %q", res.Conflict, existing.ID)
			}
			if len(res.Errors) != 1 || res.Errors[0].Msg != "This SKU has the same link as" {
				t.Errorf("Errors = %+v", res.Errors)
			}
			if store.writes != 0 {
				t.Errorf("writes = %d, want 0", store.writes)
			}
			if len(store.items) != 1 {
				t.Errorf("stored items = %d, want 1", len(store.items))
			}
		})
	}
}

func TestItemCreate_LostInsertRaceToSharedSegment(t *testing.T) {
	store := newFakeStore()
	tools := store.seedCategory("Tools")
	var winner Item
	store.beforeWrite = func(f *fakeStore) { winner = f.seedItem("Widget", "x 1", tools.ID) }
	store.dupOnWrite = true
	w := newTestItemWorkflow(store)

	in := hammerInput(tools.ID)
	in.SKU = "x_1"
	res, err := w.Create(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.State != StateColliding {
		t.Fatalf("State = %v, want %v", res.State, StateColliding)
	}
	if res.Conflict == nil || res.Conflict.ID != winner.ID {
		t.Errorf("Conflict = %+v, want id %q", res.Conflict, winner.ID)
	}
}

func TestItemUpdate_PriceOnlyIsSelfMatch(t *testing.T) {
	store := newFakeStore()
	tools := store.seedCategory("Tools")
	hammer := store.seedItem("Hammer", "HM-100", tools.ID)
	w := newTestItemWorkflow(store)

	in := hammerInput(tools.ID)
	in.Price = decimal.RequireFromString("12.50")
	res, err := w.Update(context.Background(), "hm-100", in, nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if res.State != StatePersisted {
		t.Fatalf("State = %v, want %v", res.State, StatePersisted)
	}
	if res.Item.ID != hammer.ID {
		t.Errorf("ID = %q, want %q", res.Item.ID, hammer.ID)
	}
	if !store.items[hammer.ID].Price.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("stored Price = %s, want 12.50", store.items[hammer.ID].Price)
	}
	if store.writes != 1 {
		t.Errorf("writes = %d, want 1", store.writes)
	}
}

func TestItemUpdate_SKUTakenByOther(t *testing.T) {
	store := newFakeStore()
	tools := store.seedCategory("Tools")
	store.seedItem("Hammer", "HM-100", tools.ID)
	saw := store.seedItem("Saw", "SW-1", tools.ID)
	w := newTestItemWorkflow(store)

	in := hammerInput(tools.ID)
	in.SKU = "sw-1"
	res, err := w.Update(context.Background(), "hm-100", in, nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.State != StateColliding {
		t.Fatalf("State = %v, want %v", res.State, StateColliding)
	}
	if res.Conflict.ID != saw.ID {
		t.Errorf("Conflict.ID = %q, want %q", res.Conflict.ID, saw.ID)
	}
	if store.writes != 0 {
		t.Errorf("writes = %d, want 0", store.writes)
	}
}

func TestItemUpdate_MatchSetWithSelfAndOther(t *testing.T) {
	store := newFakeStore()
	tools := store.seedCategory("Tools")
	self := store.seedItem("Hammer", "HM-100", tools.ID)
	other := store.seedItem("Hammer copy", "hm-100", tools.ID)
	w := newTestItemWorkflow(store)

	res, err := w.Update(context.Background(), "hm-100", hammerInput(tools.ID), nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.State != StateColliding {
		t.Fatalf("State = %v, want %v", res.State, StateColliding)
	}
	if res.Conflict.ID != other.ID {
		t.Errorf("Conflict.ID = %q, want %q (self is %q)", res.Conflict.ID, other.ID, self.ID)
	}
}

func TestItemUpdate_SharedPathSegment(t *testing.T) {
	store := newFakeStore()
	tools := store.seedCategory("Tools")
	widget := store.seedItem("Widget", "x 1", tools.ID)
	hammer := store.seedItem("Hammer", "HM-100", tools.ID)
	w := newTestItemWorkflow(store)

	in := hammerInput(tools.ID)
	in.SKU = "X_1"
	res, err := w.Update(context.Background(), "hm-100", in, nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.State != StateColliding {
		t.Fatalf("State = %v, want %v", res.State, StateColliding)
	}
	if res.Conflict == nil || res.Conflict.ID != widget.ID {
		t.Errorf("Conflict = %+v, want id %q", res.Conflict, widget.ID)
	}
	if store.items[hammer.ID].NormalizedSKU != "hm-100" {
		t.Errorf("hammer SKU changed to %q", store.items[hammer.ID].NormalizedSKU)
	}

	// The owner may switch separators without colliding with itself.
	in = hammerInput(tools.ID)
	in.Name = "Widget"
	in.SKU = "x_1"
	res, err = w.Update(context.Background(), "x_1", in, nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.State != StatePersisted {
		t.Fatalf("State = %v, want %v", res.State, StatePersisted)
	}
	if res.Item.ID != widget.ID {
		t.Errorf("ID = %q, want %q", res.Item.ID, widget.ID)
	}
}

func TestItemUpdate_MovesToUnusedSKU(t *testing.T) {
	store := newFakeStore()
	tools := store.seedCategory("Tools")
	hammer := store.seedItem("Hammer", "HM-100", tools.ID)
	w := newTestItemWorkflow(store)

	in := hammerInput(tools.ID)
	in.SKU = "HM 200"
	res, err := w.Update(context.Background(), "hm-100", in, nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.State != StatePersisted {
		t.Fatalf("State = %v, want %v", res.State, StatePersisted)
	}
	if res.Item.ID != hammer.ID {
		t.Errorf("ID = %q, want %q", res.Item.ID, hammer.ID)
	}
	if got := res.Item.URL(); got != "/item/hm_200" {
		t.Errorf("URL() = %q, want %q", got, "/item/hm_200")
	}
}

func TestItemUpdate_MissingCategory(t *testing.T) {
	store := newFakeStore()
	tools := store.seedCategory("Tools")
	store.seedItem("Hammer", "HM-100", tools.ID)
	w := newTestItemWorkflow(store)

	res, err := w.Update(context.Background(), "hm-100", hammerInput("cat-404"), nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.State != StateReferenceMissing {
		t.Errorf("State = %v, want %v", res.State, StateReferenceMissing)
	}
}

func TestItemUpdate_TargetNotFound(t *testing.T) {
	store := newFakeStore()
	tools := store.seedCategory("Tools")
	w := newTestItemWorkflow(store)

	_, err := w.Update(context.Background(), "nope", hammerInput(tools.ID), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestItemCreate_CategoryRemovedBeforeInsert(t *testing.T) {
	store := newFakeStore()
	tools := store.seedCategory("Tools")
	store.writeErr = fmt.Errorf("insert item: %w", ErrReferenceNotFound)
	w := newTestItemWorkflow(store)

	res, err := w.Create(context.Background(), hammerInput(tools.ID), nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.State != StateReferenceMissing {
		t.Errorf("State = %v, want %v", res.State, StateReferenceMissing)
	}
	if len(res.Errors) != 1 || res.Errors[0].Field != "category" {
		t.Errorf("Errors = %+v, want one category error", res.Errors)
	}
}
