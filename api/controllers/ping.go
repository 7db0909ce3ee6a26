package controllers

import (
	"net/http"

	"github.com/partsdeskhq/partsdesk-backend/api/responses"
)

// PublicPing answers unauthenticated reachability probes.
func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"message": "pong"})
	}
}

// PrivatePing answers behind the auth middleware, proving the token path.
func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"message": "pong"})
	}
}
