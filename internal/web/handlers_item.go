package web

import (
	"net/http"

	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/web/templates"
)

// handleItemList renders every item.
func (s *Server) handleItemList(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListItems(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.render(w, r, http.StatusOK, templates.ItemList(templates.ItemListParams{Items: items}))
}

// handleItemCreateForm renders an empty item form. ?category= preselects a
// category, as linked from the category page.
func (s *Server) handleItemCreateForm(w http.ResponseWriter, r *http.Request) {
	form := core.ItemForm{CategoryID: r.URL.Query().Get("category")}
	s.renderItemForm(w, r, http.StatusOK, "Create Item", "/item/create", form, nil)
}

// handleItemCreate runs a submission through the item workflow.
func (s *Server) handleItemCreate(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}

	form := itemForm(r)
	in, errs := core.ValidateItemForm(form)
	res, err := s.service.Items.Create(r.Context(), in, errs)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if res.State == core.StatePersisted {
		seeOther(w, r, res.Item.URL())
		return
	}
	s.renderItemForm(w, r, http.StatusUnprocessableEntity, "Create Item", "/item/create", form, res.Errors)
}

// handleItemDetail renders an item with a link to its category.
func (s *Server) handleItemDetail(w http.ResponseWriter, r *http.Request) {
	it, c, err := s.service.ItemDetail(r.Context(), segment(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.render(w, r, http.StatusOK, templates.ItemDetail(templates.ItemDetailParams{Item: it, Category: c}))
}

func (s *Server) handleItemUpdateForm(w http.ResponseWriter, r *http.Request) {
	it, err := s.service.ResolveItem(r.Context(), segment(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.renderItemForm(w, r, http.StatusOK, "Update Item", it.URL()+"/update", templates.ItemFormFromItem(it), nil)
}

// handleItemUpdate resolves the target before validating so a stale URL is
// a 404 whatever the form contains.
func (s *Server) handleItemUpdate(w http.ResponseWriter, r *http.Request) {
	seg := segment(r)
	target, err := s.service.ResolveItem(r.Context(), seg)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if !s.parseForm(w, r) {
		return
	}

	form := itemForm(r)
	in, errs := core.ValidateItemForm(form)
	res, err := s.service.Items.Update(r.Context(), seg, in, errs)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if res.State == core.StatePersisted {
		seeOther(w, r, res.Item.URL())
		return
	}
	s.renderItemForm(w, r, http.StatusUnprocessableEntity, "Update Item", target.URL()+"/update", form, res.Errors)
}

func (s *Server) handleItemDeleteForm(w http.ResponseWriter, r *http.Request) {
	it, err := s.service.ResolveItem(r.Context(), segment(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.render(w, r, http.StatusOK, templates.ItemDelete(templates.ItemDeleteParams{Item: it}))
}

func (s *Server) handleItemDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteItem(r.Context(), segment(r)); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	seeOther(w, r, "/items")
}

// renderItemForm loads the category options and renders the item form.
func (s *Server) renderItemForm(w http.ResponseWriter, r *http.Request, status int, title, action string, form core.ItemForm, errs []core.FieldError) {
	cats, err := s.service.ListCategories(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.render(w, r, status, templates.ItemForm(templates.ItemFormParams{
		Title:      title,
		Action:     action,
		Form:       form,
		Categories: cats,
		Errors:     errs,
	}))
}

func itemForm(r *http.Request) core.ItemForm {
	return core.ItemForm{
		Name:        r.PostFormValue("name"),
		SKU:         r.PostFormValue("sku"),
		Price:       r.PostFormValue("price"),
		Quantity:    r.PostFormValue("quantity"),
		Weight:      r.PostFormValue("weight"),
		CategoryID:  r.PostFormValue("category"),
		Description: r.PostFormValue("description"),
	}
}
