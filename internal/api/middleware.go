// Package api implements the course assistant REST API using chi.
package api

import (
	"net/http"
)

// CORSMiddleware returns middleware that allows cross-origin browser clients.
// The chat UI may be hosted on a different origin than the API, so every
// response carries permissive CORS headers and preflight requests short-circuit.
func CORSMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
