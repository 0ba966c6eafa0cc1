package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/inventory/internal/core"
)

func TestCategoryLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.InsertCategory(ctx, core.Category{Name: "Tools", NormalizedName: "tools"})
	if err != nil {
		t.Fatalf("InsertCategory() error = %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("id %q is not a uuid: %v", id, err)
	}

	got, err := s.CategoryByNormalizedName(ctx, "tools")
	if err != nil {
		t.Fatalf("CategoryByNormalizedName() error = %v", err)
	}
	if got.ID != id {
		t.Errorf("ID = %q, want %q", got.ID, id)
	}

	updated, err := s.UpdateCategory(ctx, id, core.Category{Name: "Hand Tools", NormalizedName: "hand tools"})
	if err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}
	if updated.ID != id {
		t.Errorf("updated ID = %q, want %q", updated.ID, id)
	}
	if _, err := s.CategoryByNormalizedName(ctx, "tools"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("old key lookup error = %v, want ErrNotFound", err)
	}

	if err := s.DeleteCategory(ctx, id); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if _, err := s.CategoryByID(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("CategoryByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteCategory(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second DeleteCategory() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateMissing(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.UpdateCategory(ctx, "nope", core.Category{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateCategory() error = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateItem(ctx, "nope", core.Item{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateItem() error = %v, want ErrNotFound", err)
	}
}

func TestItemQueriesKeepInsertionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	catA, _ := s.InsertCategory(ctx, core.Category{Name: "A", NormalizedName: "a"})
	catB, _ := s.InsertCategory(ctx, core.Category{Name: "B", NormalizedName: "b"})

	var ids []string
	for _, it := range []core.Item{
		{Name: "one", NormalizedSKU: "dup", CategoryID: catA, Price: decimal.NewFromInt(1)},
		{Name: "two", NormalizedSKU: "dup", CategoryID: catB, Price: decimal.NewFromInt(2)},
		{Name: "three", NormalizedSKU: "solo", CategoryID: catA, Price: decimal.NewFromInt(3)},
	} {
		id, err := s.InsertItem(ctx, it)
		if err != nil {
			t.Fatalf("InsertItem() error = %v", err)
		}
		ids = append(ids, id)
	}

	dups, err := s.ItemsByNormalizedSKU(ctx, "dup")
	if err != nil {
		t.Fatalf("ItemsByNormalizedSKU() error = %v", err)
	}
	if len(dups) != 2 || dups[0].ID != ids[0] || dups[1].ID != ids[1] {
		t.Errorf("ItemsByNormalizedSKU() = %+v, want ids %v", dups, ids[:2])
	}

	inA, err := s.ItemsByCategory(ctx, catA)
	if err != nil {
		t.Fatalf("ItemsByCategory() error = %v", err)
	}
	if len(inA) != 2 || inA[0].Name != "one" || inA[1].Name != "three" {
		t.Errorf("ItemsByCategory() = %+v, want one then three", inA)
	}

	none, err := s.ItemsByNormalizedSKU(ctx, "missing")
	if err != nil || len(none) != 0 {
		t.Errorf("ItemsByNormalizedSKU(missing) = %v, %v; want empty, nil", none, err)
	}

	all, err := s.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(ListItems()) = %d, want 3", len(all))
	}

	if err := s.DeleteItem(ctx, ids[0]); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	if _, err := s.ItemByID(ctx, ids[0]); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("ItemByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestPathSegmentLookups(t *testing.T) {
	s := New()
	ctx := context.Background()

	spaced, _ := s.InsertCategory(ctx, core.Category{Name: "Hand Tools", NormalizedName: "hand tools"})
	underscored, _ := s.InsertCategory(ctx, core.Category{Name: "hand_tools", NormalizedName: "hand_tools"})
	s.InsertCategory(ctx, core.Category{Name: "Garden", NormalizedName: "garden"})

	tests := []struct {
		segment string
		want    []string
	}{
		{"hand_tools", []string{spaced, underscored}},
		{"hand tools", nil},
		{"garden_", nil},
	}
	for _, tt := range tests {
		cats, err := s.CategoriesByPathSegment(ctx, tt.segment)
		if err != nil {
			t.Fatalf("CategoriesByPathSegment(%q) error = %v", tt.segment, err)
		}
		if len(cats) != len(tt.want) {
			t.Fatalf("CategoriesByPathSegment(%q) = %d records, want %d", tt.segment, len(cats), len(tt.want))
		}
		for i, id := range tt.want {
			if cats[i].ID != id {
				t.Errorf("CategoriesByPathSegment(%q)[%d] = %q, want %q", tt.segment, i, cats[i].ID, id)
			}
		}
	}

	first, _ := s.InsertItem(ctx, core.Item{Name: "Widget", NormalizedSKU: "x 1", CategoryID: spaced})
	second, _ := s.InsertItem(ctx, core.Item{Name: "Gadget", NormalizedSKU: "x_1", CategoryID: spaced})
	items, err := s.ItemsByPathSegment(ctx, "x_1")
	if err != nil {
		t.Fatalf("ItemsByPathSegment() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != first || items[1].ID != second {
		t.Errorf("ItemsByPathSegment() = %+v, want %q then %q", items, first, second)
	}
}

func TestWorkflowRejectsSharedPathSegment(t *testing.T) {
	s := New()
	ctx := context.Background()
	w := core.NewCategoryWorkflow(s)

	if res, err := w.Create(ctx, core.CategoryInput{Name: "Hand Tools", Description: "x"}, nil); err != nil || res.State != core.StatePersisted {
		t.Fatalf("Create(Hand Tools) = %v, %v", res.State, err)
	}
	res, err := w.Create(ctx, core.CategoryInput{Name: "hand_tools", Description: "x"}, nil)
	if err != nil {
		t.Fatalf("Create(hand_tools) error = %v", err)
	}
	if res.State != core.StateColliding {
		t.Errorf("State = %v, want %v", res.State, core.StateColliding)
	}

	cats, _ := s.ListCategories(ctx)
	if len(cats) != 1 {
		t.Errorf("stored categories = %d, want 1", len(cats))
	}
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := s.Ping(ctx); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("Ping() error = %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.ListCategories(ctx); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("ListCategories() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.InsertItem(ctx, core.Item{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("InsertItem() error = %v, want context.Canceled", err)
	}
	if !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("InsertItem() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestConcurrentInserts(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.InsertCategory(ctx, core.Category{NormalizedName: "same"}); err != nil {
				t.Errorf("InsertCategory() error = %v", err)
			}
		}()
	}
	wg.Wait()

	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(cats) != 50 {
		t.Errorf("len = %d, want 50", len(cats))
	}
}

func TestWorkflowOverMemstore(t *testing.T) {
	svc := core.NewService(New())
	ctx := context.Background()

	created, err := svc.Categories.Create(ctx, core.CategoryInput{Name: "Tools", Description: "Hand tools"}, nil)
	if err != nil || created.State != core.StatePersisted {
		t.Fatalf("Create() = %v, %v", created.State, err)
	}

	again, err := svc.Categories.Create(ctx, core.CategoryInput{Name: "tools", Description: "dup"}, nil)
	if err != nil {
		t.Fatalf("second Create() error = %v", err)
	}
	if again.State != core.StateRedirected || again.Category.ID != created.Category.ID {
		t.Errorf("second Create() = %v %+v, want redirect to %q", again.State, again.Category, created.Category.ID)
	}
}
