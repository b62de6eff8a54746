package httpx

import "context"

type ctxKey string

const (
	// CtxKeyUserID carries the authenticated user's id, injected by the
	// session middleware.
	CtxKeyUserID ctxKey = "user_id"
)

// UserIDFromContext returns the authenticated user id, or "" when anonymous.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}
