package transport

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/muhammadheryan/stock-reservation/constant"
	utilsContext "github.com/muhammadheryan/stock-reservation/utils/context"
	"github.com/muhammadheryan/stock-reservation/utils/errors"
	"github.com/muhammadheryan/stock-reservation/utils/token"
)

// AuthMiddleware validates the service JWT of checkout callers and stores its subject as the caller.
// Public and internal endpoints pass through; internal routes carry their own API key check.
func AuthMiddleware(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if secret == "" || auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
				return
			}

			caller, err := token.Validate(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
				return
			}

			next.ServeHTTP(w, r.WithContext(utilsContext.WithCaller(r.Context(), caller)))
		})
	}
}

// isPublicPath defines which endpoints are public (no JWT required)
func isPublicPath(path string) bool {
	if strings.HasPrefix(path, "/swagger/") || strings.HasPrefix(path, "/internal/") {
		return true
	}
	return path == "/metrics" || path == "/healthz"
}
