package http

import (
	"encoding/json"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

func (s *Server) handleRegisterFamily(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, decodeErr(err))
		return
	}
	f, err := s.dir.Register(r.Context(), req.Phone)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, familyJSON(f))
}

func (s *Server) handleAddSecondary(w http.ResponseWriter, r *http.Request) {
	ownerPhone, err := owner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req phoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, decodeErr(err))
		return
	}
	f, err := s.dir.AddSecondary(r.Context(), ownerPhone, req.Phone)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, familyJSON(f))
}

func (s *Server) handleGetFamily(w http.ResponseWriter, r *http.Request) {
	ownerPhone, err := owner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := s.dir.Family(r.Context(), ownerPhone)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, familyJSON(f))
}
