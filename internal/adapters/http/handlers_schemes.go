package httpadapter

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

func (rt *Router) listSchemes(w http.ResponseWriter, r *http.Request) {
	schemes := rt.Catalog.List()

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if category == "" && query == "" {
		writeJSON(w, http.StatusOK, schemes)
		return
	}

	filtered := make([]domain.Scheme, 0, len(schemes))
	for _, s := range schemes {
		if category != "" && !strings.EqualFold(s.Category, category) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(s.Name), query) && !strings.Contains(strings.ToLower(s.Description), query) {
			continue
		}
		filtered = append(filtered, s)
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (rt *Router) getScheme(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "scheme id must be a number"})
		return
	}
	scheme, ok := rt.Catalog.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "scheme not found"})
		return
	}
	writeJSON(w, http.StatusOK, scheme)
}

type addBookmarkRequest struct {
	SchemeID int `json:"schemeId" validate:"required,gt=0"`
}

func (rt *Router) addBookmark(w http.ResponseWriter, r *http.Request) {
	var req addBookmarkRequest
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	bookmark, created, err := rt.Bookmarks.Add(r.Context(), userIDFromContext(r.Context()), req.SchemeID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	writeJSON(w, status, bookmark)
}

func (rt *Router) listBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := rt.Bookmarks.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmarks)
}

func (rt *Router) removeBookmark(w http.ResponseWriter, r *http.Request) {
	if err := rt.Bookmarks.Remove(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bookmark deleted successfully"})
}

func (rt *Router) eligibility(w http.ResponseWriter, r *http.Request) {
	matches, err := rt.Eligibility.Evaluate(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"eligibleSchemes": matches})
}

func (rt *Router) recommendations(w http.ResponseWriter, r *http.Request) {
	rec, err := rt.Recommendations.RecommendForUser(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAIReply(rt.service, "recommendations", string(rec.Source))
	}
	writeJSON(w, http.StatusOK, rec)
}
