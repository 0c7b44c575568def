package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/matclass/internal/store"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListClassifications(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		jsonError(w, "history unavailable", http.StatusServiceUnavailable)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := s.deps.Store.List(r.Context(), limit)
	if err != nil {
		s.log.Error("list classifications", "error", err)
		jsonError(w, "failed to list classifications", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"classifications": recs})
}

func (s *Server) handleGetClassification(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		jsonError(w, "history unavailable", http.StatusServiceUnavailable)
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.deps.Store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "classification not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("get classification", "id", id, "error", err)
		jsonError(w, "failed to load classification", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
