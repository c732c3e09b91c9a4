package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the configured origins to call the JSON API with credentials.
// Pages are same-origin and pass through untouched. No origins means no cross-origin access.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", CSRFHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           600,
	})

	return func(next http.Handler) http.Handler {
		api := c.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowedOrigins) == 0 || !isAPIRequest(r) {
				next.ServeHTTP(w, r)
				return
			}
			api.ServeHTTP(w, r)
		})
	}
}
