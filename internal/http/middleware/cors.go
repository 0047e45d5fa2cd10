package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS wraps a whole router. An origin of "*" allows any origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	})
}
