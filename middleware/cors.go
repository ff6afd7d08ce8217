package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/cors"
)

// CorsMiddleware admits browser calls from domain and its subdomains only.
// Session cookies are sent, so a wildcard origin is not an option.
func CorsMiddleware(domain string) func(h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool {
			return originAllowed(origin, domain)
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler
}

func originAllowed(origin string, domain string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Hostname() == "" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	domain = strings.ToLower(domain)

	return host == domain || strings.HasSuffix(host, "."+domain)
}
