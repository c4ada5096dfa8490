package httpadapter

import (
	"net/http"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

func (rt *Router) register(w http.ResponseWriter, r *http.Request) {
	var req domain.Registration
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	token, err := rt.Accounts.Register(r.Context(), req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	token, err := rt.Accounts.Login(r.Context(), req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (rt *Router) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := rt.Accounts.GetProfile(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (rt *Router) updateProfile(w http.ResponseWriter, r *http.Request) {
	var update domain.ProfileUpdate
	if !rt.decodeJSON(w, r, &update) {
		return
	}
	profile, err := rt.Accounts.UpdateProfile(r.Context(), userIDFromContext(r.Context()), update)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
