package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperjump/kensaku/internal/models"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := &models.SearchQuery{
		Query:    params.Get("q"),
		Type:     params.Get("type"),
		Platform: params.Get("platform"),
		Category: params.Get("category"),
		Sort:     params.Get("sort"),
		// Malformed numbers parse to zero and Normalize clamps them to
		// defaults; bad pagination is corrected, never rejected.
		Page:  atoiOrZero(params.Get("page")),
		Limit: atoiOrZero(params.Get("limit")),
	}
	s.logger.Debug("search request",
		zap.String("q", query.Query),
		zap.String("type", query.Type),
		zap.Int("page", query.Page))

	response, err := s.service.Search(r.Context(), query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := params.Get("q")
	limit := atoiOrZero(params.Get("limit"))

	suggestions, err := s.service.Suggest(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("suggest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// handleInvalidate is the hook write paths call after a create/update/delete
// so search reflects changes faster than the TTL window.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	s.service.Invalidate()
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.service.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.service.Healthy(r.Context()) {
		s.respondError(w, http.StatusServiceUnavailable, "index unavailable")
		return
	}
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

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
