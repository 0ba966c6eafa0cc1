// Package templates renders the inventory pages as templ components.
//
// Each page is an html/template file under html/ executed inside layout.html.
// Values are escaped when rendered, so form input is stored as submitted.
package templates

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/inventory/internal/core"
)

//go:embed html/*.html
var files embed.FS

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"weight": func(w decimal.NullDecimal) string {
		if !w.Valid {
			return ""
		}
		return w.Decimal.String()
	},
}

var pages = map[string]*template.Template{}

func init() {
	names := []string{
		"index.html",
		"category_detail.html",
		"category_form.html",
		"category_delete.html",
		"item_list.html",
		"item_detail.html",
		"item_form.html",
		"item_delete.html",
		"error.html",
	}
	for _, name := range names {
		pages[name] = template.Must(
			template.New("layout.html").Funcs(funcs).ParseFS(files, "html/layout.html", "html/"+name),
		)
	}
}

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, ok := pages[name]
		if !ok {
			return fmt.Errorf("template %s not registered", name)
		}
		return t.ExecuteTemplate(w, "layout.html", data)
	})
}

// IndexParams lists every category.
type IndexParams struct {
	Title      string
	Categories []core.Category
}

// Index renders the category index.
func Index(p IndexParams) templ.Component {
	if p.Title == "" {
		p.Title = "Categories"
	}
	return render("index.html", p)
}

// CategoryDetailParams shows one category with its items.
type CategoryDetailParams struct {
	Title    string
	Category core.Category
	Items    []core.Item
}

// CategoryDetail renders a category and its items.
func CategoryDetail(p CategoryDetailParams) templ.Component {
	if p.Title == "" {
		p.Title = "Category: " + p.Category.Name
	}
	return render("category_detail.html", p)
}

// CategoryFormParams fills the create and update forms. Name and Description
// hold the submitted values when the form is re-rendered with errors.
type CategoryFormParams struct {
	Title       string
	Action      string
	Name        string
	Description string
	Errors      []core.FieldError
}

// CategoryForm renders the category create/update form.
func CategoryForm(p CategoryFormParams) templ.Component {
	return render("category_form.html", p)
}

// CategoryDeleteParams drives the delete confirmation. Items lists the
// records that block the delete.
type CategoryDeleteParams struct {
	Title    string
	Category core.Category
	Items    []core.Item
	Errors   []core.FieldError
}

// CategoryDelete renders the delete confirmation page.
func CategoryDelete(p CategoryDeleteParams) templ.Component {
	if p.Title == "" {
		p.Title = "Delete Category: " + p.Category.Name
	}
	return render("category_delete.html", p)
}

// ItemListParams lists every item.
type ItemListParams struct {
	Title string
	Items []core.Item
}

// ItemList renders the item index.
func ItemList(p ItemListParams) templ.Component {
	if p.Title == "" {
		p.Title = "Items"
	}
	return render("item_list.html", p)
}

// ItemDetailParams shows one item. Category is the zero value when the
// reference no longer resolves.
type ItemDetailParams struct {
	Title    string
	Item     core.Item
	Category core.Category
}

// ItemDetail renders a single item.
func ItemDetail(p ItemDetailParams) templ.Component {
	if p.Title == "" {
		p.Title = "Item: " + p.Item.Name
	}
	return render("item_detail.html", p)
}

// ItemFormParams fills the item create and update forms.
type ItemFormParams struct {
	Title      string
	Action     string
	Form       core.ItemForm
	Categories []core.Category
	Errors     []core.FieldError
}

// ItemForm renders the item create/update form.
func ItemForm(p ItemFormParams) templ.Component {
	return render("item_form.html", p)
}

// ItemFormFromItem prefills an item form from a stored record.
func ItemFormFromItem(it core.Item) core.ItemForm {
	f := core.ItemForm{
		Name:        it.Name,
		SKU:         it.SKU,
		Price:       it.Price.String(),
		Quantity:    fmt.Sprint(it.Quantity),
		CategoryID:  it.CategoryID,
		Description: it.Description,
	}
	if it.Weight.Valid {
		f.Weight = it.Weight.Decimal.String()
	}
	return f
}

// ItemDeleteParams drives the item delete confirmation.
type ItemDeleteParams struct {
	Title string
	Item  core.Item
}

// ItemDelete renders the item delete confirmation page.
func ItemDelete(p ItemDeleteParams) templ.Component {
	if p.Title == "" {
		p.Title = "Delete Item: " + p.Item.Name
	}
	return render("item_delete.html", p)
}

// ErrorPageParams carries the user-facing message for a failed request.
type ErrorPageParams struct {
	Title   string
	Status  int
	Message core.UserMessage
}

// ErrorPage renders a full error page.
func ErrorPage(status int, msg core.UserMessage) templ.Component {
	return render("error.html", ErrorPageParams{
		Title:   http.StatusText(status),
		Status:  status,
		Message: msg,
	})
}
