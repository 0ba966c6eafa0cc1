package core

// validation.go turns raw form submissions into normalized inputs.
//
// Validation is pure: it never touches a store. Each form is trimmed, checked
// against validator struct tags, and (for items) parsed into typed numeric
// values. A field reports at most one message: the first rule it fails.
// HTML escaping is left to the templates.

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// nonneg accepts any decimal string >= 0.
	_ = v.RegisterValidation("nonneg", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative()
	})
	return v
}

type categoryFields struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"required,max=5000"`
}

type itemFields struct {
	Name        string `validate:"required,max=100"`
	SKU         string `validate:"required,max=100"`
	Price       string `validate:"required,numeric,nonneg"`
	Quantity    string `validate:"required,number,nonneg"`
	Weight      string `validate:"omitempty,numeric,nonneg"`
	CategoryID  string `validate:"required,max=1000"`
	Description string `validate:"omitempty,max=5000"`
}

// fieldMessages maps struct field and failed tag to the message shown on the
// form. The "*" entry covers any tag not listed for that field.
var fieldMessages = map[string]map[string]string{
	"Name":        {"*": "Must provide a name."},
	"SKU":         {"*": "Must provide a sku."},
	"CategoryID":  {"*": "Must provide a category."},
	"Description": {"*": "Description must be 5000 characters or less."},
	"Price": {
		"required": "Must provide a price",
		"numeric":  "price must be a number.",
		"nonneg":   "price must be greater than or equal to 0.",
	},
	"Quantity": {
		"required": "Must provide a quantity",
		"number":   "Quantity must be a number.",
		"nonneg":   "quantity must be greater than or equal to 0.",
	},
	"Weight": {
		"numeric": "Weight must be a number.",
		"nonneg":  "weight must be greater than or equal to 0.",
	},
}

// categoryDescriptionMessage replaces the item wording for the category form,
// where the description is required.
const categoryDescriptionMessage = "Must provide a description."

// formFieldNames maps struct fields to the HTML input names.
var formFieldNames = map[string]string{
	"Name":        "name",
	"SKU":         "sku",
	"Price":       "price",
	"Quantity":    "quantity",
	"Weight":      "weight",
	"CategoryID":  "category",
	"Description": "description",
}

// ValidateCategoryForm trims and validates a category submission.
// The returned input is only meaningful when the error list is empty.
func ValidateCategoryForm(form CategoryForm) (CategoryInput, []FieldError) {
	fields := categoryFields{
		Name:        strings.TrimSpace(form.Name),
		Description: strings.TrimSpace(form.Description),
	}

	errs := collect(validate.Struct(fields))
	for i := range errs {
		if errs[i].Field == "description" {
			errs[i].Msg = categoryDescriptionMessage
		}
	}

	return CategoryInput{
		Name:        fields.Name,
		Description: fields.Description,
	}, errs
}

// ValidateItemForm trims, validates and parses an item submission.
// The returned input is only meaningful when the error list is empty.
func ValidateItemForm(form ItemForm) (ItemInput, []FieldError) {
	fields := itemFields{
		Name:        strings.TrimSpace(form.Name),
		SKU:         strings.TrimSpace(form.SKU),
		Price:       strings.TrimSpace(form.Price),
		Quantity:    strings.TrimSpace(form.Quantity),
		Weight:      strings.TrimSpace(form.Weight),
		CategoryID:  strings.TrimSpace(form.CategoryID),
		Description: strings.TrimSpace(form.Description),
	}

	errs := collect(validate.Struct(fields))
	for i := range errs {
		// "number" rejects the sign before nonneg runs.
		if errs[i].Field == "quantity" && negativeInteger(fields.Quantity) {
			errs[i].Msg = fieldMessages["Quantity"]["nonneg"]
		}
	}
	if len(errs) > 0 {
		return ItemInput{}, errs
	}

	input := ItemInput{
		Name:        fields.Name,
		SKU:         fields.SKU,
		CategoryID:  fields.CategoryID,
		Description: fields.Description,
	}

	var err error
	if input.Price, err = decimal.NewFromString(fields.Price); err != nil {
		errs = append(errs, FieldError{Field: "price", Msg: fieldMessages["Price"]["numeric"]})
	}
	if input.Quantity, err = strconv.ParseInt(fields.Quantity, 10, 64); err != nil {
		errs = append(errs, FieldError{Field: "quantity", Msg: fieldMessages["Quantity"]["number"]})
	}
	if fields.Weight != "" {
		w, err := decimal.NewFromString(fields.Weight)
		if err != nil {
			errs = append(errs, FieldError{Field: "weight", Msg: fieldMessages["Weight"]["numeric"]})
		} else {
			input.Weight = decimal.NewNullDecimal(w)
		}
	}

	return input, errs
}

func negativeInteger(s string) bool {
	n, err := strconv.ParseInt(s, 10, 64)
	return err == nil && n < 0
}

// collect converts validator output into form messages.
func collect(err error) []FieldError {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Msg: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field: formFieldNames[fe.StructField()],
			Msg:   messageFor(fe.StructField(), fe.Tag()),
		})
	}
	return out
}

func messageFor(field, tag string) string {
	msgs := fieldMessages[field]
	if m, ok := msgs[tag]; ok {
		return m
	}
	if m, ok := msgs["*"]; ok {
		return m
	}
	return field + " is invalid."
}
