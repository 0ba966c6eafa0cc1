package core

import "context"

// CategoryStore persists categories.
//
// Lookups return ErrNotFound when nothing matches. Infrastructure failures
// wrap ErrStoreUnavailable. Backends that enforce a unique normalized name
// return ErrDuplicateKey from insert and update.
type CategoryStore interface {
	CategoryByNormalizedName(ctx context.Context, key string) (Category, error)
	CategoriesByPathSegment(ctx context.Context, segment string) ([]Category, error)
	CategoryByID(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	InsertCategory(ctx context.Context, c Category) (string, error)
	UpdateCategory(ctx context.Context, id string, c Category) (Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// ItemStore persists items. Error conventions match CategoryStore.
type ItemStore interface {
	ItemsByNormalizedSKU(ctx context.Context, key string) ([]Item, error)
	ItemsByPathSegment(ctx context.Context, segment string) ([]Item, error)
	ItemsByCategory(ctx context.Context, categoryID string) ([]Item, error)
	ItemByID(ctx context.Context, id string) (Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	InsertItem(ctx context.Context, it Item) (string, error)
	UpdateItem(ctx context.Context, id string, it Item) (Item, error)
	DeleteItem(ctx context.Context, id string) error
}

// Store is a complete inventory backend.
type Store interface {
	CategoryStore
	ItemStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
