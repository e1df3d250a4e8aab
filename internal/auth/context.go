package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const uploaderKey contextKey = "uploader"

// uploaderHeader carries the requester identity set by the API gateway.
const uploaderHeader = "X-Uploaded-By"

// ContextWithUploader returns a new context that carries the requester
// identity.
func ContextWithUploader(ctx context.Context, uploader string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	uploader = strings.TrimSpace(uploader)
	if uploader == "" {
		return ctx
	}
	return context.WithValue(ctx, uploaderKey, uploader)
}

// UploaderFromContext retrieves the requester identity from the context,
// if any.
func UploaderFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value := ctx.Value(uploaderKey)
	if value == nil {
		return "", false
	}
	uploader, ok := value.(string)
	if !ok || uploader == "" {
		return "", false
	}
	return uploader, true
}

// Middleware copies the gateway-supplied identity header into the
// request context. Requests without the header pass through untouched;
// endpoints that need an identity enforce it themselves.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uploader := strings.TrimSpace(r.Header.Get(uploaderHeader)); uploader != "" {
			r = r.WithContext(ContextWithUploader(r.Context(), uploader))
		}
		next.ServeHTTP(w, r)
	})
}
