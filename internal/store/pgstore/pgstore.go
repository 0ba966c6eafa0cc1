// Package pgstore is the PostgreSQL core.Store, built on a pgx connection pool.
//
// Unique constraints on normalized_name and normalized_sku, and on the
// generated path_segment columns, back up the workflow's uniqueness checks: a write that loses a race fails with
// core.ErrDuplicateKey instead of storing a second record.
package pgstore

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/inventory/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// Options configures the connection pool.
type Options struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store implements core.Store over PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

// Open connects, pings and applies the schema.
func Open(ctx context.Context, opts Options) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := New(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool. The schema is not applied.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping checks the pool.
func (s *Store) Ping(ctx context.Context) error {
	return mapError("ping", s.pool.Ping(ctx))
}

// Close releases every pooled connection.
func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

/* ----------------------------------------
	Categories
---------------------------------------- */

const categoryColumns = `id::text, name, normalized_name, description, created_at, updated_at`

func scanCategory(row pgx.Row) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.Name, &c.NormalizedName, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CategoryByNormalizedName returns the oldest category stored with key.
func (s *Store) CategoryByNormalizedName(ctx context.Context, key string) (core.Category, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE normalized_name = $1 ORDER BY created_at LIMIT 1`, key)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, mapError("find category by name", err)
	}
	return c, nil
}

// CategoryByID returns the category with id. Ids that are not UUIDs cannot
// exist and report core.ErrNotFound without a query.
func (s *Store) CategoryByID(ctx context.Context, id string) (core.Category, error) {
	if !validID(id) {
		return core.Category{}, fmt.Errorf("find category %q: %w", id, core.ErrNotFound)
	}
	row := s.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, mapError("find category", err)
	}
	return c, nil
}

// CategoriesByPathSegment returns every category whose generated
// path_segment equals segment, oldest first.
func (s *Store) CategoriesByPathSegment(ctx context.Context, segment string) ([]core.Category, error) {
	return s.queryCategories(ctx, "find categories by segment", `WHERE path_segment = $1`, segment)
}

// ListCategories returns every category, oldest first.
func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.queryCategories(ctx, "list categories", ``)
}

func (s *Store) queryCategories(ctx context.Context, op, where string, args ...any) ([]core.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories `+where+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	cats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Category, error) {
		return scanCategory(row)
	})
	if err != nil {
		return nil, mapError(op, err)
	}
	return cats, nil
}

// InsertCategory stores c under a new UUID and returns it.
func (s *Store) InsertCategory(ctx context.Context, c core.Category) (string, error) {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO categories (id, name, normalized_name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, c.Name, c.NormalizedName, c.Description, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return "", mapError("insert category", err)
	}
	return id, nil
}

// UpdateCategory replaces the category stored under id and returns the
// stored row.
func (s *Store) UpdateCategory(ctx context.Context, id string, c core.Category) (core.Category, error) {
	if !validID(id) {
		return core.Category{}, fmt.Errorf("update category %q: %w", id, core.ErrNotFound)
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE categories
		 SET name = $2, normalized_name = $3, description = $4, updated_at = $5
		 WHERE id = $1
		 RETURNING `+categoryColumns,
		id, c.Name, c.NormalizedName, c.Description, c.UpdatedAt)
	updated, err := scanCategory(row)
	if err != nil {
		return core.Category{}, mapError("update category", err)
	}
	return updated, nil
}

// DeleteCategory removes the category stored under id. A category still
// referenced by items reports core.ErrCategoryInUse.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("delete category %q: %w", id, core.ErrNotFound)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return mapError("delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete category %q: %w", id, core.ErrNotFound)
	}
	return nil
}

/* ----------------------------------------
	Items
---------------------------------------- */

const itemColumns = `id::text, name, sku, normalized_sku, description, quantity, price, weight,
	category_id::text, created_at, updated_at`

func scanItem(row pgx.Row) (core.Item, error) {
	var (
		it     core.Item
		price  pgtype.Numeric
		weight pgtype.Numeric
	)
	err := row.Scan(&it.ID, &it.Name, &it.SKU, &it.NormalizedSKU, &it.Description,
		&it.Quantity, &price, &weight, &it.CategoryID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return core.Item{}, err
	}
	if it.Price, err = fromNumeric(price); err != nil {
		return core.Item{}, fmt.Errorf("item %s price: %w", it.ID, err)
	}
	if it.Weight, err = fromNullNumeric(weight); err != nil {
		return core.Item{}, fmt.Errorf("item %s weight: %w", it.ID, err)
	}
	return it, nil
}

func (s *Store) queryItems(ctx context.Context, op, where string, args ...any) ([]core.Item, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+itemColumns+` FROM items `+where+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Item, error) {
		return scanItem(row)
	})
	if err != nil {
		return nil, mapError(op, err)
	}
	return items, nil
}

// ItemsByNormalizedSKU returns every item stored with key.
func (s *Store) ItemsByNormalizedSKU(ctx context.Context, key string) ([]core.Item, error) {
	return s.queryItems(ctx, "find items by sku", `WHERE normalized_sku = $1`, key)
}

// ItemsByPathSegment returns every item whose generated path_segment equals
// segment, oldest first.
func (s *Store) ItemsByPathSegment(ctx context.Context, segment string) ([]core.Item, error) {
	return s.queryItems(ctx, "find items by segment", `WHERE path_segment = $1`, segment)
}

// ItemsByCategory returns every item referencing categoryID.
func (s *Store) ItemsByCategory(ctx context.Context, categoryID string) ([]core.Item, error) {
	if !validID(categoryID) {
		return nil, nil
	}
	return s.queryItems(ctx, "find items by category", `WHERE category_id = $1`, categoryID)
}

// ItemByID returns the item with id.
func (s *Store) ItemByID(ctx context.Context, id string) (core.Item, error) {
	if !validID(id) {
		return core.Item{}, fmt.Errorf("find item %q: %w", id, core.ErrNotFound)
	}
	row := s.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	it, err := scanItem(row)
	if err != nil {
		return core.Item{}, mapError("find item", err)
	}
	return it, nil
}

// ListItems returns every item, oldest first.
func (s *Store) ListItems(ctx context.Context) ([]core.Item, error) {
	return s.queryItems(ctx, "list items", ``)
}

// InsertItem stores it under a new UUID and returns it. A missing category
// reports core.ErrReferenceNotFound.
func (s *Store) InsertItem(ctx context.Context, it core.Item) (string, error) {
	if !validID(it.CategoryID) {
		return "", fmt.Errorf("insert item: category %q: %w", it.CategoryID, core.ErrReferenceNotFound)
	}
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO items (id, name, sku, normalized_sku, description, quantity, price, weight,
		                    category_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, it.Name, it.SKU, it.NormalizedSKU, it.Description, it.Quantity,
		toNumeric(it.Price), toNullNumeric(it.Weight), it.CategoryID, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		return "", mapError("insert item", err)
	}
	return id, nil
}

// UpdateItem replaces the item stored under id and returns the stored row.
func (s *Store) UpdateItem(ctx context.Context, id string, it core.Item) (core.Item, error) {
	if !validID(id) {
		return core.Item{}, fmt.Errorf("update item %q: %w", id, core.ErrNotFound)
	}
	if !validID(it.CategoryID) {
		return core.Item{}, fmt.Errorf("update item: category %q: %w", it.CategoryID, core.ErrReferenceNotFound)
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE items
		 SET name = $2, sku = $3, normalized_sku = $4, description = $5, quantity = $6,
		     price = $7, weight = $8, category_id = $9, updated_at = $10
		 WHERE id = $1
		 RETURNING `+itemColumns,
		id, it.Name, it.SKU, it.NormalizedSKU, it.Description, it.Quantity,
		toNumeric(it.Price), toNullNumeric(it.Weight), it.CategoryID, it.UpdatedAt)
	updated, err := scanItem(row)
	if err != nil {
		return core.Item{}, mapError("update item", err)
	}
	return updated, nil
}

// DeleteItem removes the item stored under id.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("delete item %q: %w", id, core.ErrNotFound)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return mapError("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete item %q: %w", id, core.ErrNotFound)
	}
	return nil
}
