package dashboard

import "context"

// Actor identifies who changed a preset. Activity events carry it as actor, user and tenant.
type Actor struct {
	ID       string
	UserID   string
	TenantID string
}

// ActorForViewer is the actor of a viewer acting on their own presets.
func ActorForViewer(viewer ViewerContext) Actor {
	return Actor{ID: viewer.UserID, UserID: viewer.UserID}
}

type actorKey struct{}

// WithActor attaches actor to ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor attached to ctx.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
