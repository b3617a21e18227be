package middleware

import (
	"net/http"

	"hrsaas/internal/domain/auth"
	"hrsaas/internal/transport/http/api"
)

// RequireCapability admits callers holding at least one of caps.
func RequireCapability(caps ...auth.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			granted := user.Capabilities()
			for _, c := range caps {
				if granted.Has(c) {
					next.ServeHTTP(w, r)
					return
				}
			}
			api.Fail(w, http.StatusForbidden, "forbidden", "Permission denied", GetRequestID(r.Context()))
		})
	}
}
