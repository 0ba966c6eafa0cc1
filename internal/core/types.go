package core

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups items. NormalizedName is the uniqueness key.
type Category struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalizedName"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// URL returns the category's detail path.
func (c Category) URL() string {
	return "/category/" + url.PathEscape(PathSegment(c.NormalizedName))
}

// Item is a stock-keeping unit that belongs to exactly one category.
// NormalizedSKU is the uniqueness key.
type Item struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	SKU           string              `json:"sku"`
	NormalizedSKU string              `json:"normalizedSku"`
	Description   string              `json:"description"`
	Quantity      int64               `json:"quantity"`
	Price         decimal.Decimal     `json:"price"`
	Weight        decimal.NullDecimal `json:"weight"`
	CategoryID    string              `json:"categoryId"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// URL returns the item's detail path.
func (i Item) URL() string {
	return "/item/" + url.PathEscape(PathSegment(i.NormalizedSKU))
}

// CategoryForm holds the raw strings submitted by the category form.
type CategoryForm struct {
	Name        string
	Description string
}

// CategoryInput is a validated, trimmed category submission.
type CategoryInput struct {
	Name        string
	Description string
}

// ItemForm holds the raw strings submitted by the item form.
type ItemForm struct {
	Name        string
	SKU         string
	Price       string
	Quantity    string
	Weight      string
	CategoryID  string
	Description string
}

// ItemInput is a validated item submission with parsed numeric fields.
type ItemInput struct {
	Name        string
	SKU         string
	Price       decimal.Decimal
	Quantity    int64
	Weight      decimal.NullDecimal
	CategoryID  string
	Description string
}

// FieldError is a single message shown next to a form.
// Link, when set, points at the record the message is about.
type FieldError struct {
	Field    string `json:"field,omitempty"`
	Msg      string `json:"msg"`
	Link     string `json:"link,omitempty"`
	LinkText string `json:"linkText,omitempty"`
}

func (e FieldError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Msg
	}
	return e.Msg
}

// State is the terminal state of one submission through a workflow.
type State int

const (
	StateRejected State = iota + 1
	StateReferenceMissing
	StateColliding
	StateRedirected
	StatePersisted
	StateInfrastructureFailure
)

func (s State) String() string {
	switch s {
	case StateRejected:
		return "rejected"
	case StateReferenceMissing:
		return "reference_missing"
	case StateColliding:
		return "colliding"
	case StateRedirected:
		return "redirected"
	case StatePersisted:
		return "persisted"
	case StateInfrastructureFailure:
		return "infrastructure_failure"
	default:
		return "unknown"
	}
}

// CategoryResult is the outcome of a CategoryWorkflow call.
//
// Category holds the persisted record for StatePersisted, the existing record
// for StateRedirected, and nil otherwise. Conflict is set for StateColliding.
type CategoryResult struct {
	State    State
	Category *Category
	Conflict *Category
	Errors   []FieldError
}

// Err returns the sentinel matching the result's state, or nil on success.
func (r CategoryResult) Err() error {
	return stateErr(r.State)
}

// ItemResult is the outcome of an ItemWorkflow call.
type ItemResult struct {
	State    State
	Item     *Item
	Conflict *Item
	Errors   []FieldError
}

// Err returns the sentinel matching the result's state, or nil on success.
func (r ItemResult) Err() error {
	return stateErr(r.State)
}

func stateErr(s State) error {
	switch s {
	case StateRejected:
		return ErrValidationFailed
	case StateReferenceMissing:
		return ErrReferenceNotFound
	case StateColliding:
		return ErrUniquenessConflict
	case StateInfrastructureFailure:
		return ErrStoreUnavailable
	default:
		return nil
	}
}
