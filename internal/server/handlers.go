package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/biolinker/grantindex/internal/index"
	"github.com/biolinker/grantindex/internal/models"
)

type searchRequest struct {
	Query  string            `json:"query"`
	Limit  int               `json:"limit,omitempty"`
	Filter map[string]string `json:"filter,omitempty"`
}

type matchRequest struct {
	Profile models.Profile `json:"profile"`
	Limit   int            `json:"limit,omitempty"`
}

type paperRequest struct {
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract,omitempty"`
	FullText string   `json:"full_text,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// clampLimit applies the configured default and ceiling to a requested
// result count.
func (s *Server) clampLimit(limit int) int {
	if limit <= 0 {
		return s.config.Search.DefaultLimit
	}
	if limit > s.config.Search.MaxLimit {
		return s.config.Search.MaxLimit
	}
	return limit
}

func (s *Server) handleAddNotice(w http.ResponseWriter, r *http.Request) {
	var n models.Notice
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if n.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	s.logger.Debug("add notice request", zap.String("title", n.Title))
	id, err := s.store.AddNotice(r.Context(), &n)
	if err != nil {
		s.logger.Error("add notice failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": id, "status": "stored"})
}

func (s *Server) handleAddNotices(w http.ResponseWriter, r *http.Request) {
	var notices []*models.Notice
	if err := json.NewDecoder(r.Body).Decode(&notices); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("batch add request", zap.Int("count", len(notices)))
	ids := s.store.AddNotices(r.Context(), notices)
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"ids":      ids,
		"stored":   len(ids),
		"received": len(notices),
	})
}

func (s *Server) handleAddPaper(w http.ResponseWriter, r *http.Request) {
	var req paperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	id, err := s.store.AddPaper(r.Context(), req.ID, req.Title, req.Abstract, req.FullText, req.Keywords)
	if err != nil {
		s.logger.Error("add paper failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": id, "status": "stored"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	limit := s.clampLimit(req.Limit)
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("limit", limit))
	matches, err := s.store.SearchSimilar(r.Context(), req.Query, limit, index.Filter(req.Filter))
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Profile.TechKeywords) == 0 && req.Profile.TechDescription == "" {
		s.respondError(w, http.StatusBadRequest, "profile is required")
		return
	}
	limit := s.clampLimit(req.Limit)
	results, err := s.store.SearchByProfile(r.Context(), &req.Profile, limit)
	if err != nil {
		s.logger.Error("profile match failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleListNotices(w http.ResponseWriter, r *http.Request) {
	limit := s.config.Search.MaxLimit
	notices := s.store.ListAll(r.Context(), limit)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"notices": notices,
		"count":   len(notices),
	})
}

func (s *Server) handleGetNotice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := s.store.GetNotice(r.Context(), id)
	if err != nil {
		s.logger.Error("get notice failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n == nil {
		s.respondError(w, http.StatusNotFound, "notice not found")
		return
	}
	s.respondJSON(w, http.StatusOK, n)
}

func (s *Server) handleDeleteNotice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete notice request", zap.String("id", id))
	if err := s.store.DeleteNotice(r.Context(), id); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"notices":            s.store.Count(r.Context()),
		"index_backend":      string(s.store.Backend()),
		"embedding_provider": string(s.store.Provider()),
		"config": map[string]interface{}{
			"persist_dir":   s.config.Storage.PersistDir,
			"default_limit": s.config.Search.DefaultLimit,
			"max_limit":     s.config.Search.MaxLimit,
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
