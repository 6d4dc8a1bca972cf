// Package middleware provides HTTP middleware for webhook authentication.
package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// SecretHeader carries the shared secret on webhook calls.
const SecretHeader = "x-webhook-secret"

// RequireSecret rejects requests whose secret header does not equal secret.
// Rejected requests get 401 {"error":"Unauthorized"} and never reach next.
// An empty configured secret rejects everything.
func RequireSecret(secret string) func(http.Handler) http.Handler {
	want := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(SecretHeader))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
