package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets browser clients call the API from other origins.
func CORS(next http.Handler) http.Handler {
	return corsHandler(next)
}

var corsHandler = cors.Handler(cors.Options{
	AllowedOrigins:   []string{"*"},
	AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
	ExposedHeaders:   []string{"X-Request-Id"},
	AllowCredentials: false,
	MaxAge:           300,
})
