// Package actor carries the authenticated caller and request metadata
// through a context.Context.
package actor

import "context"

type Actor struct {
	UserID    string
	Username  string
	RequestID string
}

func (a Actor) Anonymous() bool {
	return a.UserID == ""
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// From returns the actor stored in ctx, or the zero Actor.
func From(ctx context.Context) Actor {
	a, _ := ctx.Value(ctxKey{}).(Actor)
	return a
}
