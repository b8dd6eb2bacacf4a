package testutil

import (
	"net/http"

	"blkout/pkg/requestcontext"
)

// WithModerator adds a moderator ID to the request context, simulating what
// the auth middleware does for an authenticated moderation request.
func WithModerator(req *http.Request, moderator string) *http.Request {
	ctx := requestcontext.WithModerator(req.Context(), moderator)
	return req.WithContext(ctx)
}
