package httpx

import "context"

type ctxKey string

const (
	CtxKeyCallerID ctxKey = "caller_id"
	CtxKeyRole     ctxKey = "role"
)

// CallerID returns the authenticated actor's database ID, or "" when the
// request is unauthenticated. Handlers pass this explicitly into services.
func CallerID(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyCallerID).(string); ok {
		return v
	}
	return ""
}

// Role returns the authenticated actor's role, or "".
func Role(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyRole).(string); ok {
		return v
	}
	return ""
}
