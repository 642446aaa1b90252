package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// addFavoriteRequest is the JSON body for POST /api/v1/favorites.
type addFavoriteRequest struct {
	PaperID string   `json:"paper_id" validate:"required"`
	Tags    []string `json:"tags,omitempty"`
}

// updateTagsRequest is the JSON body for PUT /api/v1/favorites/{paperID}/tags.
// An empty tag list is valid and clears the favorite's tags.
type updateTagsRequest struct {
	Tags []string `json:"tags"`
}

// rateRequest is the JSON body for POST /api/v1/ratings.
type rateRequest struct {
	PaperID string `json:"paper_id" validate:"required"`
	Value   int    `json:"value" validate:"required,oneof=-1 1"`
}

// recordViewRequest is the JSON body for POST /api/v1/history.
type recordViewRequest struct {
	PaperID  string `json:"paper_id" validate:"required"`
	Category string `json:"category,omitempty"`
}

// listFavorites handles GET /api/v1/favorites.
func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := parseLimitOffset(q.Get("limit"), q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	favorites, err := s.library.ListFavorites(r.Context(), userIDFromRequest(r), q.Get("tag"), limit, offset)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"favorites": favorites,
		"count":     len(favorites),
	})
}

// addFavorite handles POST /api/v1/favorites.
func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	var req addFavoriteRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fav, err := s.library.AddFavorite(r.Context(), userIDFromRequest(r), req.PaperID, req.Tags)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

// getFavorite handles GET /api/v1/favorites/{paperID}.
func (s *Server) getFavorite(w http.ResponseWriter, r *http.Request) {
	paperID, err := requirePaperID(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	fav, isFavorite, err := s.library.GetFavorite(r.Context(), userIDFromRequest(r), paperID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"is_favorite": isFavorite,
		"favorite":    fav,
	})
}

// removeFavorite handles DELETE /api/v1/favorites/{paperID}.
func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	paperID, err := requirePaperID(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if err := s.library.RemoveFavorite(r.Context(), userIDFromRequest(r), paperID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// toggleFavorite handles POST /api/v1/favorites/{paperID}/toggle.
func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	paperID, err := requirePaperID(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	fav, added, err := s.library.ToggleFavorite(r.Context(), userIDFromRequest(r), paperID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"is_favorite": added,
		"favorite":    fav,
	})
}

// updateFavoriteTags handles PUT /api/v1/favorites/{paperID}/tags.
func (s *Server) updateFavoriteTags(w http.ResponseWriter, r *http.Request) {
	paperID, err := requirePaperID(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var req updateTagsRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fav, err := s.library.UpdateTags(r.Context(), userIDFromRequest(r), paperID, req.Tags)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fav)
}

// generateFavoriteTags handles POST /api/v1/favorites/{paperID}/tags/generate.
func (s *Server) generateFavoriteTags(w http.ResponseWriter, r *http.Request) {
	paperID, err := requirePaperID(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	tags, err := s.library.GenerateTags(r.Context(), userIDFromRequest(r), paperID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"paper_id": paperID,
		"tags":     tags,
	})
}

// ratePaper handles POST /api/v1/ratings.
func (s *Server) ratePaper(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rating, err := s.library.RatePaper(r.Context(), userIDFromRequest(r), req.PaperID, req.Value)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}

// listRatings handles GET /api/v1/ratings.
func (s *Server) listRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := s.library.ListRatings(r.Context(), userIDFromRequest(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ratings": ratings,
		"count":   len(ratings),
	})
}

// deleteRating handles DELETE /api/v1/ratings/{paperID}.
func (s *Server) deleteRating(w http.ResponseWriter, r *http.Request) {
	paperID, err := requirePaperID(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if err := s.library.DeleteRating(r.Context(), userIDFromRequest(r), paperID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recordView handles POST /api/v1/history.
func (s *Server) recordView(w http.ResponseWriter, r *http.Request) {
	var req recordViewRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := s.library.RecordView(r.Context(), userIDFromRequest(r), req.PaperID, req.Category)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// listHistory handles GET /api/v1/history.
func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := parseLimitOffset(q.Get("limit"), q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.library.ListHistory(r.Context(), userIDFromRequest(r), q.Get("category"), limit, offset)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": entries,
		"count":   len(entries),
	})
}

// generateProposal handles POST /api/v1/proposals.
func (s *Server) generateProposal(w http.ResponseWriter, r *http.Request) {
	proposal, err := s.proposals.Generate(r.Context(), userIDFromRequest(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposal)
}

// listProposals handles GET /api/v1/proposals.
func (s *Server) listProposals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := parseLimitOffset(q.Get("limit"), q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	proposals, err := s.proposals.List(r.Context(), userIDFromRequest(r), limit, offset)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"proposals": proposals,
		"count":     len(proposals),
	})
}

// getProposal handles GET /api/v1/proposals/{proposalID}.
func (s *Server) getProposal(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "proposalID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "proposal ID must be a valid UUID")
		return
	}

	proposal, err := s.proposals.Get(r.Context(), userIDFromRequest(r), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

// deleteProposal handles DELETE /api/v1/proposals/{proposalID}.
func (s *Server) deleteProposal(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "proposalID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "proposal ID must be a valid UUID")
		return
	}

	if err := s.proposals.Delete(r.Context(), userIDFromRequest(r), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
