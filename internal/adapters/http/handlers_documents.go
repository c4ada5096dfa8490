package httpadapter

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

// multipartOverhead leaves room for the form fields around the file part.
const multipartOverhead = 1 << 20

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(rt.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file is too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form is required"})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("document")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	docType := strings.TrimSpace(r.FormValue("documentType"))
	if docType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Document type is required"})
		return
	}

	start := time.Now()
	result, err := rt.Intake.Intake(r.Context(), domain.IntakeRequest{
		UserID:       userIDFromContext(r.Context()),
		DocumentType: domain.DocumentType(docType),
		Filename:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		var confidence float64
		if result.Document != nil {
			confidence = result.Document.Verification.ConfidenceScore
		}
		rt.metrics.RecordIntake(rt.service, string(result.Status), docType, confidence, time.Since(start))
	}

	status := http.StatusCreated
	if result.Status != domain.IntakeVerified {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.Documents.ListMine(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.Documents.Get(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := rt.Documents.Delete(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}
