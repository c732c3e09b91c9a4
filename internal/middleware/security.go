package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/templui/storyloom/internal/ctxkeys"
)

// SecurityHeaders sets the Content-Security-Policy and the usual hardening headers.
// Media may come from the object store or from provider CDNs, so img and media sources allow https.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		scriptSrc := "'self'"
		if nonce := GetNonce(r.Context()); nonce != "" {
			scriptSrc += fmt.Sprintf(" 'nonce-%s'", nonce)
		}

		connectSrc := "'self'"
		if cfg := ctxkeys.Config(r.Context()); cfg != nil && cfg.S3Endpoint != "" {
			connectSrc += " " + strings.TrimRight(cfg.S3Endpoint, "/")
		}

		h.Set("Content-Security-Policy", strings.Join([]string{
			"default-src 'self'",
			"script-src " + scriptSrc,
			"style-src 'self' 'unsafe-inline'",
			"img-src 'self' data: https:",
			"media-src 'self' https:",
			"connect-src " + connectSrc,
			"frame-ancestors 'none'",
			"base-uri 'self'",
			"form-action 'self'",
		}, "; "))
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

		if cfg := ctxkeys.Config(r.Context()); cfg != nil && cfg.IsProduction() {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}
