package bus

import "context"

// CommandHandler handles commands of type C.
type CommandHandler[C Command] interface {
	Handle(ctx context.Context, c C) error
}

// QueryHandler handles queries of type Q and returns a result of type R.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, q Q) (R, error)
}

// EventHandler handles events of type E.
// The handler value is its identity: subscribing an equal value twice for the
// same event type registers it once. Use pointer or other comparable types
// when that matters.
type EventHandler[E Event] interface {
	Handle(ctx context.Context, e E) error
}

// CommandHandlerFunc adapts a function to CommandHandler.
type CommandHandlerFunc[C Command] func(ctx context.Context, c C) error

func (f CommandHandlerFunc[C]) Handle(ctx context.Context, c C) error { return f(ctx, c) }

// QueryHandlerFunc adapts a function to QueryHandler.
type QueryHandlerFunc[Q Query, R any] func(ctx context.Context, q Q) (R, error)

func (f QueryHandlerFunc[Q, R]) Handle(ctx context.Context, q Q) (R, error) { return f(ctx, q) }

// EventHandlerFunc adapts a function to EventHandler.
// Function values have no identity in Go, so every subscription of an
// EventHandlerFunc is kept.
type EventHandlerFunc[E Event] func(ctx context.Context, e E) error

func (f EventHandlerFunc[E]) Handle(ctx context.Context, e E) error { return f(ctx, e) }
