package middleware

import (
	"fmt"
	"net/http"

	"github.com/cloo-solutions/docgpt/internal/api"
)

// MaxBodyBytes rejects request bodies over limit. Only methods that carry a
// body are limited; a limit of zero disables the check.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil || r.Body == http.NoBody || !hasBody(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			// Declared lengths are refused before any of the body is read.
			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
