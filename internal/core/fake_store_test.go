package core

import (
	"context"
	"fmt"
	"sort"
)

// fakeStore is an in-package Store that counts calls and writes.
// Seed records through seedCategory/seedItem so setup is not counted.
type fakeStore struct {
	categories map[string]Category
	items      map[string]Item
	seq        int

	calls  int
	writes int

	// failWith, when set, is returned by every method.
	failWith error
	// beforeWrite runs before insert/update; dupOnWrite then rejects the write.
	beforeWrite func(f *fakeStore)
	dupOnWrite  bool
	// writeErr, when set, is returned by insert/update.
	writeErr error
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories: make(map[string]Category),
		items:      make(map[string]Item),
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) seedCategory(name string) Category {
	c := Category{ID: f.nextID("cat"), Name: name, NormalizedName: NormalizeKey(name)}
	f.categories[c.ID] = c
	return c
}

func (f *fakeStore) seedItem(name, sku, categoryID string) Item {
	it := Item{ID: f.nextID("item"), Name: name, SKU: sku, NormalizedSKU: NormalizeKey(sku), CategoryID: categoryID}
	f.items[it.ID] = it
	return it
}

func (f *fakeStore) enter() error {
	f.calls++
	return f.failWith
}

func (f *fakeStore) write() error {
	if f.beforeWrite != nil {
		f.beforeWrite(f)
	}
	if f.dupOnWrite {
		return ErrDuplicateKey
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	return nil
}

func (f *fakeStore) CategoryByNormalizedName(ctx context.Context, key string) (Category, error) {
	if err := f.enter(); err != nil {
		return Category{}, err
	}
	for _, id := range f.sortedCategoryIDs() {
		if f.categories[id].NormalizedName == key {
			return f.categories[id], nil
		}
	}
	return Category{}, ErrNotFound
}

func (f *fakeStore) CategoriesByPathSegment(ctx context.Context, segment string) ([]Category, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	var out []Category
	for _, id := range f.sortedCategoryIDs() {
		if PathSegment(f.categories[id].NormalizedName) == segment {
			out = append(out, f.categories[id])
		}
	}
	return out, nil
}

func (f *fakeStore) CategoryByID(ctx context.Context, id string) (Category, error) {
	if err := f.enter(); err != nil {
		return Category{}, err
	}
	c, ok := f.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListCategories(ctx context.Context) ([]Category, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	var out []Category
	for _, id := range f.sortedCategoryIDs() {
		out = append(out, f.categories[id])
	}
	return out, nil
}

func (f *fakeStore) InsertCategory(ctx context.Context, c Category) (string, error) {
	if err := f.enter(); err != nil {
		return "", err
	}
	if err := f.write(); err != nil {
		return "", err
	}
	c.ID = f.nextID("cat")
	f.categories[c.ID] = c
	return c.ID, nil
}

func (f *fakeStore) UpdateCategory(ctx context.Context, id string, c Category) (Category, error) {
	if err := f.enter(); err != nil {
		return Category{}, err
	}
	if _, ok := f.categories[id]; !ok {
		return Category{}, ErrNotFound
	}
	if err := f.write(); err != nil {
		return Category{}, err
	}
	c.ID = id
	f.categories[id] = c
	return c, nil
}

func (f *fakeStore) DeleteCategory(ctx context.Context, id string) error {
	if err := f.enter(); err != nil {
		return err
	}
	if _, ok := f.categories[id]; !ok {
		return ErrNotFound
	}
	f.writes++
	delete(f.categories, id)
	return nil
}

func (f *fakeStore) ItemsByNormalizedSKU(ctx context.Context, key string) ([]Item, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	var out []Item
	for _, id := range f.sortedItemIDs() {
		if f.items[id].NormalizedSKU == key {
			out = append(out, f.items[id])
		}
	}
	return out, nil
}

func (f *fakeStore) ItemsByPathSegment(ctx context.Context, segment string) ([]Item, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	var out []Item
	for _, id := range f.sortedItemIDs() {
		if PathSegment(f.items[id].NormalizedSKU) == segment {
			out = append(out, f.items[id])
		}
	}
	return out, nil
}

func (f *fakeStore) ItemsByCategory(ctx context.Context, categoryID string) ([]Item, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	var out []Item
	for _, id := range f.sortedItemIDs() {
		if f.items[id].CategoryID == categoryID {
			out = append(out, f.items[id])
		}
	}
	return out, nil
}

func (f *fakeStore) ItemByID(ctx context.Context, id string) (Item, error) {
	if err := f.enter(); err != nil {
		return Item{}, err
	}
	it, ok := f.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (f *fakeStore) ListItems(ctx context.Context) ([]Item, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	var out []Item
	for _, id := range f.sortedItemIDs() {
		out = append(out, f.items[id])
	}
	return out, nil
}

func (f *fakeStore) InsertItem(ctx context.Context, it Item) (string, error) {
	if err := f.enter(); err != nil {
		return "", err
	}
	if err := f.write(); err != nil {
		return "", err
	}
	it.ID = f.nextID("item")
	f.items[it.ID] = it
	return it.ID, nil
}

func (f *fakeStore) UpdateItem(ctx context.Context, id string, it Item) (Item, error) {
	if err := f.enter(); err != nil {
		return Item{}, err
	}
	if _, ok := f.items[id]; !ok {
		return Item{}, ErrNotFound
	}
	if err := f.write(); err != nil {
		return Item{}, err
	}
	it.ID = id
	f.items[id] = it
	return it, nil
}

func (f *fakeStore) DeleteItem(ctx context.Context, id string) error {
	if err := f.enter(); err != nil {
		return err
	}
	if _, ok := f.items[id]; !ok {
		return ErrNotFound
	}
	f.writes++
	delete(f.items, id)
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error  { return f.enter() }
func (f *fakeStore) Close(ctx context.Context) error { return nil }

// sortedCategoryIDs keeps lookups deterministic. ids are "cat-N" with a
// single sequence, so ordering by length then value is insertion order.
func (f *fakeStore) sortedCategoryIDs() []string {
	ids := make([]string, 0, len(f.categories))
	for id := range f.categories {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func (f *fakeStore) sortedItemIDs() []string {
	ids := make([]string, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
}
