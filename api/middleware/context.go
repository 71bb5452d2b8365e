package middleware

import (
	"context"

	"github.com/angelmondragon/codcrm-backend/pkg/actor"
)

type contextKey string

const ctxActor contextKey = "actor"

// WithActor stores the authenticated operator on ctx.
func WithActor(ctx context.Context, act actor.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, act)
}

// ActorFromContext returns the operator set by Auth, or the zero Actor.
func ActorFromContext(ctx context.Context) actor.Actor {
	if ctx == nil {
		return actor.Actor{}
	}
	if v, ok := ctx.Value(ctxActor).(actor.Actor); ok {
		return v
	}
	return actor.Actor{}
}

func UserIDFromContext(ctx context.Context) string {
	act := ActorFromContext(ctx)
	if act.IsZero() {
		return ""
	}
	return act.UserID.String()
}

func RoleFromContext(ctx context.Context) string {
	return string(ActorFromContext(ctx).Role)
}
