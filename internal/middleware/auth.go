package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/templui/storyloom/internal/ctxkeys"
	"github.com/templui/storyloom/internal/service"
)

// AuthMiddleware checks for a JWT cookie and adds the user to the context if valid
func AuthMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(service.AuthCookieName)
			if err != nil {
				// No cookie, continue without auth
				next.ServeHTTP(w, r)
				return
			}

			user, err := authService.UserFromToken(cookie.Value)
			if err != nil {
				// Invalid token or deleted user, clear cookie and continue
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			// Security: Remove password hash from context
			user.PasswordHash = ""

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth ensures the user is authenticated.
// API requests get a JSON 401, page requests are redirected to the login page.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		if isAPIRequest(r) {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		http.Redirect(w, r, "/auth/login?next="+r.URL.Path, http.StatusSeeOther)
	}
}

// RequireGuest ensures the user is not authenticated
func RequireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) != nil {
			http.Redirect(w, r, "/gallery", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}
