package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/unrolled/secure"
)

// SecurityHeaders sets the usual hardening headers (nosniff, frame deny,
// referrer policy, CSP). HSTS is only emitted for TLS requests.
func SecurityHeaders(isDevelopment bool) func(http.Handler) http.Handler {
	sec := secure.New(secure.Options{
		ContentTypeNosniff:    true,
		FrameDeny:             true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'self'",
		STSSeconds:            15552000,
		STSIncludeSubdomains:  true,
		IsDevelopment:         isDevelopment,
	})
	return sec.Handler
}

// CORSOptions configures cross-origin access.
type CORSOptions struct {
	Origins     []string
	Credentials bool
}

// CORS answers preflight requests and decorates responses for the
// configured origins.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	origins := opts.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Retry-After"},
		AllowCredentials: opts.Credentials,
		MaxAge:           600,
	})
}
