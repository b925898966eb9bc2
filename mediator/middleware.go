package mediator

import "context"

// CommandMiddleware wraps command handler execution. Middlewares are executed in registration order.
type CommandMiddleware func(next func(ctx context.Context, cmd any) error) func(ctx context.Context, cmd any) error

// WithCommandMiddleware registers global command middleware via an option.
func WithCommandMiddleware(mw ...CommandMiddleware) Option {
	return func(m *Mediator) { m.cmdMW = append(m.cmdMW, mw...) }
}
