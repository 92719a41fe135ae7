// Package middleware holds HTTP middleware for the API server.
package middleware

import (
	"crypto/subtle"
	"net/http"
)

// DeviceKeyHeader carries the shared secret presented by door devices.
const DeviceKeyHeader = "X-Device-Key"

// RequireDeviceKey rejects requests whose device key header does not match
// the configured key. An empty configured key means no device is trusted,
// so every request is rejected rather than silently letting everyone in.
func RequireDeviceKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(DeviceKeyHeader)
			if key == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
