package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

func CORS(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Content-Disposition", "Mcp-Session-Id"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	})
}
