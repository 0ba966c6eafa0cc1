// Package mongostore is the MongoDB core.Store.
//
// Records are stored with string UUID _id values so links and JSON look the
// same as with the other backends. Unique indexes on normalized_name,
// normalized_sku and path_segment turn a lost uniqueness race into
// core.ErrDuplicateKey.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/JonMunkholm/inventory/internal/core"
)

const (
	categoriesCollection = "categories"
	itemsCollection      = "items"
)

// Options configures the client.
type Options struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Store implements core.Store over MongoDB.
type Store struct {
	client     *mongo.Client
	categories *mongo.Collection
	items      *mongo.Collection
}

var _ core.Store = (*Store)(nil)

// Open connects, pings and creates the unique indexes.
func Open(ctx context.Context, opts Options) (*Store, error) {
	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.Timeout > 0 {
		clientOpts.SetConnectTimeout(opts.Timeout).SetServerSelectionTimeout(opts.Timeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(opts.Database)
	s := &Store{
		client:     client,
		categories: db.Collection(categoriesCollection),
		items:      db.Collection(itemsCollection),
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// segmentIndex is unique over path_segment. Documents written before the
// field existed are left out of the index.
func segmentIndex(name string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{{Key: "path_segment", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(name).
			SetPartialFilterExpression(bson.D{{Key: "path_segment", Value: bson.D{{Key: "$exists", Value: true}}}}),
	}
}

// EnsureIndexes creates the unique key indexes and the category lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.categories.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "normalized_name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("categories_normalized_name_key"),
		},
		segmentIndex("categories_path_segment_key"),
	})
	if err != nil {
		return fmt.Errorf("create category indexes: %w", err)
	}

	_, err = s.items.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "normalized_sku", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("items_normalized_sku_key"),
		},
		segmentIndex("items_path_segment_key"),
		{
			Keys:    bson.D{{Key: "category_id", Value: 1}},
			Options: options.Index().SetName("items_category_id_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("create item indexes: %w", err)
	}
	return nil
}

// Ping checks the primary.
func (s *Store) Ping(ctx context.Context) error {
	return mapError("ping", s.client.Ping(ctx, readpref.Primary()))
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, core.ErrDuplicateKey)
	}
	return fmt.Errorf("%s: %w: %w", op, core.ErrStoreUnavailable, err)
}

var byCreation = options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

/* ----------------------------------------
	Categories
---------------------------------------- */

// findCategory decodes the first category matching filter.
func (s *Store) findCategory(ctx context.Context, op string, filter bson.D) (core.Category, error) {
	var doc categoryDoc
	if err := s.categories.FindOne(ctx, filter).Decode(&doc); err != nil {
		return core.Category{}, mapError(op, err)
	}
	return doc.toCategory(), nil
}

// CategoryByNormalizedName returns the category stored with key.
func (s *Store) CategoryByNormalizedName(ctx context.Context, key string) (core.Category, error) {
	return s.findCategory(ctx, "find category by name", bson.D{{Key: "normalized_name", Value: key}})
}

// CategoryByID returns the category with id.
func (s *Store) CategoryByID(ctx context.Context, id string) (core.Category, error) {
	return s.findCategory(ctx, "find category", bson.D{{Key: "_id", Value: id}})
}

// CategoriesByPathSegment returns every category stored with segment, oldest
// first.
func (s *Store) CategoriesByPathSegment(ctx context.Context, segment string) ([]core.Category, error) {
	return s.findCategories(ctx, "find categories by segment", bson.D{{Key: "path_segment", Value: segment}})
}

// ListCategories returns every category, oldest first.
func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.findCategories(ctx, "list categories", bson.D{})
}

func (s *Store) findCategories(ctx context.Context, op string, filter bson.D) ([]core.Category, error) {
	cur, err := s.categories.Find(ctx, filter, byCreation)
	if err != nil {
		return nil, mapError(op, err)
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapError(op, err)
	}

	out := make([]core.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCategory())
	}
	return out, nil
}

// InsertCategory stores c under a new UUID and returns it.
func (s *Store) InsertCategory(ctx context.Context, c core.Category) (string, error) {
	c.ID = uuid.NewString()
	if _, err := s.categories.InsertOne(ctx, categoryToDoc(c)); err != nil {
		return "", mapError("insert category", err)
	}
	return c.ID, nil
}

// UpdateCategory replaces the fields of the category stored under id and
// returns the stored document.
func (s *Store) UpdateCategory(ctx context.Context, id string, c core.Category) (core.Category, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: c.Name},
		{Key: "normalized_name", Value: c.NormalizedName},
		{Key: "path_segment", Value: core.PathSegment(c.NormalizedName)},
		{Key: "description", Value: c.Description},
		{Key: "updated_at", Value: c.UpdatedAt},
	}}}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc categoryDoc
	err := s.categories.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, after).Decode(&doc)
	if err != nil {
		return core.Category{}, mapError("update category", err)
	}
	return doc.toCategory(), nil
}

// DeleteCategory removes the category stored under id. Referencing items
// are not checked here; core.Service does that before calling it.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.categories.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return mapError("delete category", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete category %q: %w", id, core.ErrNotFound)
	}
	return nil
}

/* ----------------------------------------
	Items
---------------------------------------- */

func (s *Store) findItems(ctx context.Context, op string, filter bson.D) ([]core.Item, error) {
	cur, err := s.items.Find(ctx, filter, byCreation)
	if err != nil {
		return nil, mapError(op, err)
	}
	var docs []itemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapError(op, err)
	}

	out := make([]core.Item, 0, len(docs))
	for _, d := range docs {
		it, err := d.toItem()
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, core.ErrStoreUnavailable, err)
		}
		out = append(out, it)
	}
	return out, nil
}

// ItemsByNormalizedSKU returns every item stored with key.
func (s *Store) ItemsByNormalizedSKU(ctx context.Context, key string) ([]core.Item, error) {
	return s.findItems(ctx, "find items by sku", bson.D{{Key: "normalized_sku", Value: key}})
}

// ItemsByPathSegment returns every item stored with segment, oldest first.
func (s *Store) ItemsByPathSegment(ctx context.Context, segment string) ([]core.Item, error) {
	return s.findItems(ctx, "find items by segment", bson.D{{Key: "path_segment", Value: segment}})
}

// ItemsByCategory returns every item referencing categoryID.
func (s *Store) ItemsByCategory(ctx context.Context, categoryID string) ([]core.Item, error) {
	return s.findItems(ctx, "find items by category", bson.D{{Key: "category_id", Value: categoryID}})
}

// ListItems returns every item, oldest first.
func (s *Store) ListItems(ctx context.Context) ([]core.Item, error) {
	return s.findItems(ctx, "list items", bson.D{})
}

// ItemByID returns the item with id.
func (s *Store) ItemByID(ctx context.Context, id string) (core.Item, error) {
	var doc itemDoc
	if err := s.items.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		return core.Item{}, mapError("find item", err)
	}
	it, err := doc.toItem()
	if err != nil {
		return core.Item{}, fmt.Errorf("find item: %w: %w", core.ErrStoreUnavailable, err)
	}
	return it, nil
}

// InsertItem stores it under a new UUID and returns it.
func (s *Store) InsertItem(ctx context.Context, it core.Item) (string, error) {
	it.ID = uuid.NewString()
	doc, err := itemToDoc(it)
	if err != nil {
		return "", fmt.Errorf("insert item: %w", err)
	}
	if _, err := s.items.InsertOne(ctx, doc); err != nil {
		return "", mapError("insert item", err)
	}
	return it.ID, nil
}

// UpdateItem replaces the fields of the item stored under id and returns
// the stored document. A nil weight is unset.
func (s *Store) UpdateItem(ctx context.Context, id string, it core.Item) (core.Item, error) {
	it.ID = id
	doc, err := itemToDoc(it)
	if err != nil {
		return core.Item{}, fmt.Errorf("update item: %w", err)
	}

	set := bson.D{
		{Key: "name", Value: doc.Name},
		{Key: "sku", Value: doc.SKU},
		{Key: "normalized_sku", Value: doc.NormalizedSKU},
		{Key: "path_segment", Value: doc.PathSegment},
		{Key: "description", Value: doc.Description},
		{Key: "quantity", Value: doc.Quantity},
		{Key: "price", Value: doc.Price},
		{Key: "category_id", Value: doc.CategoryID},
		{Key: "updated_at", Value: doc.UpdatedAt},
	}
	if doc.Weight != nil {
		set = append(set, bson.E{Key: "weight", Value: *doc.Weight})
	}
	update := bson.D{{Key: "$set", Value: set}}
	if doc.Weight == nil {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "weight", Value: ""}}})
	}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var stored itemDoc
	err = s.items.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, after).Decode(&stored)
	if err != nil {
		return core.Item{}, mapError("update item", err)
	}
	updated, err := stored.toItem()
	if err != nil {
		return core.Item{}, fmt.Errorf("update item: %w: %w", core.ErrStoreUnavailable, err)
	}
	return updated, nil
}

// DeleteItem removes the item stored under id.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.items.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return mapError("delete item", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete item %q: %w", id, core.ErrNotFound)
	}
	return nil
}
