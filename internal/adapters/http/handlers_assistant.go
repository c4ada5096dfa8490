package httpadapter

import (
	"net/http"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

type chatRequest struct {
	Messages []domain.ChatMessage `json:"messages" validate:"required,min=1,dive"`
	Language string               `json:"language"`
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	reply, err := rt.Assistant.Chat(r.Context(), userIDFromContext(r.Context()), req.Messages, req.Language)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAIReply(rt.service, "assistant", string(reply.Source))
	}
	writeJSON(w, http.StatusOK, reply)
}

type translateRequest struct {
	Text           string `json:"text" validate:"required,max=5000"`
	TargetLanguage string `json:"targetLanguage" validate:"required"`
	State          string `json:"state"`
}

func (rt *Router) translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	translated := rt.Translator.Translate(r.Context(), req.Text, req.TargetLanguage, req.State)
	writeJSON(w, http.StatusOK, map[string]string{"translatedText": translated})
}
