package mediator

import (
	"context"
	"fmt"
	"reflect"

	cbus "github.com/next-trace/scg-mediator/contract/bus"
	berr "github.com/next-trace/scg-mediator/contract/errors"
)

// SubscribeCommand registers h as the sole handler for command type C. Duplicate subscriptions are rejected.
func SubscribeCommand[C cbus.Command](m *Mediator, h cbus.CommandHandler[C]) error {
	var zero C

	t := reflect.TypeOf(zero)

	return m.bindCommand(t, func(ctx context.Context, v any) error {
		c, ok := v.(C)
		if !ok {
			return fmt.Errorf("publish command %s: %w", reflect.TypeOf(v).String(), berr.ErrHandlerTypeMismatch)
		}

		return h.Handle(ctx, c)
	})
}

// SubscribeQuery registers h as the sole handler for query type Q producing R. Duplicate subscriptions are rejected.
func SubscribeQuery[Q cbus.Query, R any](m *Mediator, h cbus.QueryHandler[Q, R]) error {
	var zero Q

	t := reflect.TypeOf(zero)

	return m.bindQuery(t, func(ctx context.Context, v any) (any, error) {
		q, ok := v.(Q)
		if !ok {
			return nil, fmt.Errorf("publish query %s: %w", reflect.TypeOf(v).String(), berr.ErrHandlerTypeMismatch)
		}

		return h.Handle(ctx, q)
	})
}

// SubscribeEvent appends handlers for event type E. A handler value already subscribed for E is skipped,
// where "already subscribed" means == on the handler value. Function adapters such as
// EventHandlerFunc are not comparable, so each subscription of one adds another invocation.
func SubscribeEvent[E cbus.Event](m *Mediator, handlers ...cbus.EventHandler[E]) {
	var zero E

	entries := make([]eventEntry, 0, len(handlers))

	for _, h := range handlers {
		if h == nil {
			continue
		}

		entries = append(entries, eventEntry{
			call: func(ctx context.Context, v any) error {
				e, ok := v.(E)
				if !ok {
					return fmt.Errorf("publish event %s: %w", reflect.TypeOf(v).String(), berr.ErrHandlerTypeMismatch)
				}

				return h.Handle(ctx, e)
			},
			raw: h,
		})
	}

	m.bindEvent(reflect.TypeOf(zero), entries)
}

// Ask publishes a query and returns its result as R.
func Ask[Q cbus.Query, R any](ctx context.Context, m *Mediator, q Q) (R, error) {
	var zero R

	res, err := m.PublishQuery(ctx, q)
	if err != nil {
		return zero, err
	}

	r, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("ask %s: %w", reflect.TypeOf(q).String(), berr.ErrHandlerTypeMismatch)
	}

	return r, nil
}
