package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS builds the cross-origin policy from a comma separated origin list.
// An empty list or "*" allows every origin.
func CORS(allowedOrigins string) func(http.Handler) http.Handler {
	origins := []string{"*"}
	if strings.TrimSpace(allowedOrigins) != "" {
		origins = origins[:0]
		for _, o := range strings.Split(allowedOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", TraceHeader},
		ExposedHeaders:   []string{TraceHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
