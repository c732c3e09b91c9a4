package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/storyloom/internal/service"
	"github.com/templui/storyloom/internal/ui"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, ui.Login(ui.AuthData{Next: safeNext(r.URL.Query().Get("next"))}))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(r.FormValue("identifier"))
	password := r.FormValue("password")
	next := safeNext(r.FormValue("next"))

	if identifier == "" || password == "" {
		ui.RenderStatus(w, r, http.StatusBadRequest, ui.Login(ui.AuthData{Identifier: identifier, Next: next, Error: "Username or email and password are required"}))
		return
	}

	user, err := h.authService.Login(identifier, password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			slog.Error("login failed", "error", err)
		}
		// Same message for unknown user and wrong password
		ui.RenderStatus(w, r, http.StatusUnauthorized, ui.Login(ui.AuthData{Identifier: identifier, Next: next, Error: service.ErrInvalidCredentials.Error()}))
		return
	}

	err = h.authService.StartSession(w, user)
	if err != nil {
		slog.Error("failed to start session", "error", err, "user_id", user.ID)
		ui.RenderStatus(w, r, http.StatusInternalServerError, ui.Login(ui.AuthData{Identifier: identifier, Next: next, Error: "Something went wrong, please try again"}))
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, ui.Register(ui.AuthData{}))
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := h.authService.Register(r.Context(), username, email, password)
	if err != nil {
		message := err.Error()
		status := http.StatusBadRequest
		if !isValidationError(err) {
			slog.Error("registration failed", "error", err)
			message = "Something went wrong, please try again"
			status = http.StatusInternalServerError
		}
		ui.RenderStatus(w, r, status, ui.Register(ui.AuthData{Username: username, Email: email, Error: message}))
		return
	}

	err = h.authService.StartSession(w, user)
	if err != nil {
		slog.Error("failed to start session", "error", err, "user_id", user.ID)
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/submit", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/gallery"
	}
	return next
}
