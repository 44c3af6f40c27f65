package http

import (
	"encoding/json"
	"net/http"
)

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ownerPhone, err := owner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, decodeErr(err))
		return
	}
	c, err := s.registry.Create(r.Context(), ownerPhone, req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, categoryJSON(c))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ownerPhone, err := owner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cats, err := s.registry.List(r.Context(), ownerPhone)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryJSON(c))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	ownerPhone, err := owner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.registry.Get(r.Context(), ownerPhone, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, categoryJSON(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	ownerPhone, err := owner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, decodeErr(err))
		return
	}
	c, err := s.registry.Update(r.Context(), ownerPhone, id, req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.purgeCaches()
	s.writeJSON(w, http.StatusOK, categoryJSON(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ownerPhone, err := owner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.registry.Remove(r.Context(), ownerPhone, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.purgeCaches()
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
