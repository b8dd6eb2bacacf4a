package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"blkout/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the moderator it
// belongs to.
type TokenValidator interface {
	ValidateToken(tokenString string) (moderator string, err error)
}

// RequireModerator guards moderation endpoints. Valid bearer tokens put the
// moderator ID into the context; everything else gets a 401.
func RequireModerator(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w)
				return
			}

			moderator, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithModerator(ctx, moderator)))
		})
	}
}

// OptionalModerator resolves a bearer token when one is present but lets
// anonymous requests through. Public reads use it to decide whether
// unpublished records may be shown.
func OptionalModerator(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if ok && token != "" {
				if moderator, err := validator.ValidateToken(token); err == nil {
					ctx = requestcontext.WithModerator(ctx, moderator)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":"unauthorized","message":"missing or invalid bearer token"}`))
}
