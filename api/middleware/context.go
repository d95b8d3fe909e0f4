package middleware

import "context"

type contextKey string

const (
	ctxActorID contextKey = "actor_id"
	ctxRole    contextKey = "actor_role"
)

// ActorIDFromContext returns the authenticated staff member's id.
func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the actor identity into the context.
func WithActor(ctx context.Context, actorID, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxActorID, actorID)
	return context.WithValue(ctx, ctxRole, role)
}
