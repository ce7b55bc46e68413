package httputil

import (
	"context"

	"github.com/Dan9191/quotation-service/internal/models"
)

type contextKey string

const (
	userKey      contextKey = "user"
	requestIDKey contextKey = "request_id"
)

// WithUser returns a copy of ctx carrying the authenticated identity.
func WithUser(ctx context.Context, u models.PublicUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the identity set by the auth middleware.
func UserFromContext(ctx context.Context) (models.PublicUser, bool) {
	u, ok := ctx.Value(userKey).(models.PublicUser)
	return u, ok
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id, or "" outside a request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
