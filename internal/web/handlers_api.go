package web

import (
	"net/http"

	"github.com/JonMunkholm/inventory/internal/core"
)

// handleAPICategories returns every category as JSON.
func (s *Server) handleAPICategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.service.ListCategories(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	writeJSON(w, r, cats)
}

// handleAPICategoryItems returns the items of one category as JSON.
func (s *Server) handleAPICategoryItems(w http.ResponseWriter, r *http.Request) {
	_, items, err := s.service.CategoryDetail(r.Context(), segment(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if items == nil {
		items = []core.Item{}
	}
	writeJSON(w, r, items)
}

// handleAPIItems returns every item as JSON.
func (s *Server) handleAPIItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListItems(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if items == nil {
		items = []core.Item{}
	}
	writeJSON(w, r, items)
}

// handleHealth reports whether the store answers a ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, r, map[string]string{"status": "ok"})
}
