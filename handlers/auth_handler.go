package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/fogna/football-stats/middleware"
	"github.com/fogna/football-stats/services"
)

type AuthHandler struct {
	authService  services.AuthService
	secureCookie bool
}

func NewAuthHandler(authService services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Role == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("role and password are required"))
		return
	}

	res, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	if err := writeJSON(w, http.StatusOK, jsonResponse{"token": res.Token, "session": res.Session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Logout стирает cookie. Сам JWT остается валидным до exp.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
