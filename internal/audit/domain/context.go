package domain

import (
	"context"
	"strings"
)

type actorKey struct{}

type actor struct {
	kind ActorType
	id   string
}

// WithActor tags ctx with who is performing the surrounding operations.
func WithActor(ctx context.Context, kind ActorType, id string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor{kind: kind, id: strings.TrimSpace(id)})
}

func ActorFromContext(ctx context.Context) (ActorType, string) {
	if ctx == nil {
		return "", ""
	}
	a, ok := ctx.Value(actorKey{}).(actor)
	if !ok {
		return "", ""
	}
	return a.kind, a.id
}
