package bus

import "context"

// Mediator is a minimal, non-generic view of the concrete mediator.
//
// Handlers that publish follow-up messages should hold this interface rather
// than the concrete type; typed helpers live in the mediator package.
type Mediator interface {
	// Subscribe (untyped) – type-safe subscriptions go through helper funcs in mediator.
	SubscribeCommandOf(sample Command, handler func(ctx context.Context, cmd any) error) error
	SubscribeQueryOf(sample Query, handler func(ctx context.Context, q any) (any, error)) error
	SubscribeEventOf(sample Event, handlers ...EventHandler[Event])

	// Publish
	PublishCommand(ctx context.Context, cmd Command) error
	PublishQuery(ctx context.Context, q Query) (any, error)
	PublishEvent(ctx context.Context, e Event) error

	// Published-events log of the session bound to ctx (or the ambient log).
	PublishedEvents(ctx context.Context) []Event
	FlushPublishedEvents(ctx context.Context)
	Session(ctx context.Context, fn func(ctx context.Context) error) error
}
