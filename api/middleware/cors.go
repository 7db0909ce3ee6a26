package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

const corsPreflightMaxAge = 600

// CORS applies the dashboard origin policy. The ops UI runs on a fixed
// origin per environment; local dev adds the Vite port.
func CORS() func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: []string{
			"https://ops.partsdesk.example",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"Idempotency-Key",
			"X-PD-Token",
			"X-Request-ID",
		},
		ExposedHeaders:   []string{"X-PD-Token", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           corsPreflightMaxAge,
	}
	return cors.New(opts).Handler
}
