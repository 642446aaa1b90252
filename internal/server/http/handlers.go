package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/scholaris/paper-discovery-service/internal/domain"
	"github.com/scholaris/paper-discovery-service/internal/search"
)

const (
	// maxRequestBodySize limits request bodies to 1 MB.
	maxRequestBodySize = 1 << 20
	// defaultCitationLimit bounds each citation direction.
	defaultCitationLimit = 100
)

// searchPapers handles GET /api/v1/papers/search.
func (s *Server) searchPapers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, offset, err := parseLimitOffset(q.Get("limit"), q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.search.Search(r.Context(), search.Request{
		Query:    q.Get("query"),
		Category: q.Get("category"),
		Source:   q.Get("source"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"papers":  result.Papers,
		"sources": result.Sources,
		"count":   len(result.Papers),
	})
}

// getPaper handles GET /api/v1/papers/{paperID}.
func (s *Server) getPaper(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")

	paper, err := s.search.GetPaper(r.Context(), paperID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paper)
}

// getPaperCitations handles GET /api/v1/papers/{paperID}/citations.
func (s *Server) getPaperCitations(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")

	limit := defaultCitationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	result, err := s.search.CitationsAndReferences(r.Context(), paperID, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// getRecommendations handles GET /api/v1/recommendations.
func (s *Server) getRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	result, err := s.recommend.Recommend(r.Context(), userID, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeJSON reads and unmarshals a size-limited JSON request body, then
// checks it against the struct's validate tags.
func (s *Server) decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		return errors.New("failed to read request body")
	}
	if len(body) == 0 {
		return errors.New("request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.New("invalid JSON request body")
	}
	if err := s.validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("field %s failed %s validation", fe.Field(), fe.Tag())
		}
		return errors.New("invalid request body")
	}
	return nil
}

// parseLimitOffset parses optional pagination query parameters.
func parseLimitOffset(rawLimit, rawOffset string) (int, int, error) {
	limit, offset := 0, 0
	if rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
		limit = parsed
	}
	if rawOffset != "" {
		parsed, err := strconv.Atoi(rawOffset)
		if err != nil || parsed < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
		offset = parsed
	}
	return limit, offset, nil
}

// requirePaperID extracts the paperID path parameter.
func requirePaperID(r *http.Request) (string, error) {
	paperID := chi.URLParam(r, "paperID")
	if paperID == "" {
		return "", domain.NewValidationError("paper_id", "paper ID is required")
	}
	return paperID, nil
}
