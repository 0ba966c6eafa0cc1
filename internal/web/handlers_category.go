package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/web/templates"
)

// handleIndex renders the category list.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cats, err := s.service.ListCategories(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.render(w, r, http.StatusOK, templates.Index(templates.IndexParams{Categories: cats}))
}

func (s *Server) handleCategoryCreateForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.CategoryForm(templates.CategoryFormParams{
		Title:  "Create Category",
		Action: "/category/create",
	}))
}

// handleCategoryCreate runs a submission through the category workflow.
// An existing category with the same name is a redirect, not an error.
func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}

	form := categoryForm(r)
	in, errs := core.ValidateCategoryForm(form)
	res, err := s.service.Categories.Create(r.Context(), in, errs)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	switch res.State {
	case core.StatePersisted, core.StateRedirected:
		seeOther(w, r, res.Category.URL())
	default:
		s.render(w, r, http.StatusUnprocessableEntity, templates.CategoryForm(templates.CategoryFormParams{
			Title:       "Create Category",
			Action:      "/category/create",
			Name:        form.Name,
			Description: form.Description,
			Errors:      res.Errors,
		}))
	}
}

// handleCategoryDetail renders a category with its items.
func (s *Server) handleCategoryDetail(w http.ResponseWriter, r *http.Request) {
	c, items, err := s.service.CategoryDetail(r.Context(), segment(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.render(w, r, http.StatusOK, templates.CategoryDetail(templates.CategoryDetailParams{Category: c, Items: items}))
}

func (s *Server) handleCategoryUpdateForm(w http.ResponseWriter, r *http.Request) {
	c, err := s.service.ResolveCategory(r.Context(), segment(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.render(w, r, http.StatusOK, templates.CategoryForm(templates.CategoryFormParams{
		Title:       "Update Category",
		Action:      c.URL() + "/update",
		Name:        c.Name,
		Description: c.Description,
	}))
}

// handleCategoryUpdate resolves the target before validating so a stale URL
// is a 404 whatever the form contains.
func (s *Server) handleCategoryUpdate(w http.ResponseWriter, r *http.Request) {
	seg := segment(r)
	target, err := s.service.ResolveCategory(r.Context(), seg)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if !s.parseForm(w, r) {
		return
	}

	form := categoryForm(r)
	in, errs := core.ValidateCategoryForm(form)
	res, err := s.service.Categories.Update(r.Context(), seg, in, errs)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if res.State == core.StatePersisted {
		seeOther(w, r, res.Category.URL())
		return
	}
	s.render(w, r, http.StatusUnprocessableEntity, templates.CategoryForm(templates.CategoryFormParams{
		Title:       "Update Category",
		Action:      target.URL() + "/update",
		Name:        form.Name,
		Description: form.Description,
		Errors:      res.Errors,
	}))
}

// handleCategoryDeleteForm shows the confirmation, or the items that must go
// first.
func (s *Server) handleCategoryDeleteForm(w http.ResponseWriter, r *http.Request) {
	c, items, err := s.service.CategoryDetail(r.Context(), segment(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.render(w, r, http.StatusOK, templates.CategoryDelete(templates.CategoryDeleteParams{Category: c, Items: items}))
}

func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	seg := segment(r)
	items, err := s.service.DeleteCategory(r.Context(), seg)
	switch {
	case errors.Is(err, core.ErrCategoryInUse):
		c, rerr := s.service.ResolveCategory(r.Context(), seg)
		if rerr != nil {
			s.respondError(w, r, rerr, statusFor(rerr))
			return
		}
		s.render(w, r, http.StatusConflict, templates.CategoryDelete(templates.CategoryDeleteParams{
			Category: c,
			Items:    items,
			Errors:   []core.FieldError{{Msg: core.FormatUserError(err)}},
		}))
	case err != nil:
		s.respondError(w, r, err, statusFor(err))
	default:
		seeOther(w, r, "/")
	}
}

func categoryForm(r *http.Request) core.CategoryForm {
	return core.CategoryForm{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
}
