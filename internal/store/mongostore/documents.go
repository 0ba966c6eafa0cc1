package mongostore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/JonMunkholm/inventory/internal/core"
)

// categoryDoc and itemDoc store path_segment next to the normalized key so a
// unique index can reject keys that differ only in spaces and underscores.
type categoryDoc struct {
	ID             string    `bson:"_id"`
	Name           string    `bson:"name"`
	NormalizedName string    `bson:"normalized_name"`
	PathSegment    string    `bson:"path_segment"`
	Description    string    `bson:"description"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

type itemDoc struct {
	ID            string                `bson:"_id"`
	Name          string                `bson:"name"`
	SKU           string                `bson:"sku"`
	NormalizedSKU string                `bson:"normalized_sku"`
	PathSegment   string                `bson:"path_segment"`
	Description   string                `bson:"description"`
	Quantity      int64                 `bson:"quantity"`
	Price         primitive.Decimal128  `bson:"price"`
	Weight        *primitive.Decimal128 `bson:"weight,omitempty"`
	CategoryID    string                `bson:"category_id"`
	CreatedAt     time.Time             `bson:"created_at"`
	UpdatedAt     time.Time             `bson:"updated_at"`
}

func categoryToDoc(c core.Category) categoryDoc {
	return categoryDoc{
		ID:             c.ID,
		Name:           c.Name,
		NormalizedName: c.NormalizedName,
		PathSegment:    core.PathSegment(c.NormalizedName),
		Description:    c.Description,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (d categoryDoc) toCategory() core.Category {
	return core.Category{
		ID:             d.ID,
		Name:           d.Name,
		NormalizedName: d.NormalizedName,
		Description:    d.Description,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func itemToDoc(it core.Item) (itemDoc, error) {
	price, err := toDecimal128(it.Price)
	if err != nil {
		return itemDoc{}, fmt.Errorf("price: %w", err)
	}

	doc := itemDoc{
		ID:            it.ID,
		Name:          it.Name,
		SKU:           it.SKU,
		NormalizedSKU: it.NormalizedSKU,
		PathSegment:   core.PathSegment(it.NormalizedSKU),
		Description:   it.Description,
		Quantity:      it.Quantity,
		Price:         price,
		CategoryID:    it.CategoryID,
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
	}
	if it.Weight.Valid {
		w, err := toDecimal128(it.Weight.Decimal)
		if err != nil {
			return itemDoc{}, fmt.Errorf("weight: %w", err)
		}
		doc.Weight = &w
	}
	return doc, nil
}

func (d itemDoc) toItem() (core.Item, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return core.Item{}, fmt.Errorf("item %s price: %w", d.ID, err)
	}

	it := core.Item{
		ID:            d.ID,
		Name:          d.Name,
		SKU:           d.SKU,
		NormalizedSKU: d.NormalizedSKU,
		Description:   d.Description,
		Quantity:      d.Quantity,
		Price:         price,
		CategoryID:    d.CategoryID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.Weight != nil {
		w, err := fromDecimal128(*d.Weight)
		if err != nil {
			return core.Item{}, fmt.Errorf("item %s weight: %w", d.ID, err)
		}
		it.Weight = decimal.NewNullDecimal(w)
	}
	return it, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}
