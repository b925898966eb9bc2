package mediator

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"golang.org/x/time/rate"

	cbus "github.com/next-trace/scg-mediator/contract/bus"
	berr "github.com/next-trace/scg-mediator/contract/errors"
)

// Mediator is an in-process dispatcher with write-once command/query registries
// and an additive event registry.
//
// Mediator is concurrency-safe and contains no global state. Registries are
// read-mostly after wiring; published-events logs are scoped per session via
// context, see Session.
type Mediator struct {
	mu sync.RWMutex

	cmd map[reflect.Type]func(ctx context.Context, cmd any) error
	qry map[reflect.Type]func(ctx context.Context, q any) (any, error)
	evt map[reflect.Type][]eventEntry

	// global command middleware executed in registration order
	cmdMW []CommandMiddleware

	ambient  *eventLog
	exporter cbus.EventExporter
	limiter  *rate.Limiter
	now      func() time.Time
	logger   *slog.Logger
}

var _ cbus.Mediator = (*Mediator)(nil)

type eventEntry struct {
	call func(ctx context.Context, e any) error
	raw  any // subscribed handler value, used for identity
}

// Option configures a Mediator instance.
type Option func(*Mediator)

// WithClock overrides the time source used to stamp published-event records.
func WithClock(now func() time.Time) Option {
	return func(m *Mediator) {
		if now != nil {
			m.now = now
		}
	}
}

// New constructs a Mediator. exporter may be nil when published events are never exported;
// a nil logger falls back to slog.Default().
func New(exporter cbus.EventExporter, logger *slog.Logger, opts ...Option) *Mediator {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Mediator{
		cmd:      make(map[reflect.Type]func(context.Context, any) error),
		qry:      make(map[reflect.Type]func(context.Context, any) (any, error)),
		evt:      make(map[reflect.Type][]eventEntry),
		ambient:  &eventLog{},
		exporter: exporter,
		now:      time.Now,
		logger:   logger,
	}

	for _, o := range opts {
		o(m)
	}

	return m
}

// SubscribeCommandOf registers the sole handler for the dynamic type of sample.
// A second subscription for the same type fails with ErrHandlerAlreadyRegistered
// and leaves the first handler in place.
func (m *Mediator) SubscribeCommandOf(sample cbus.Command, handler func(ctx context.Context, cmd any) error) error {
	if handler == nil {
		return fmt.Errorf("subscribe command %T: nil handler: %w", sample, berr.ErrInvalidMessage)
	}

	return m.bindCommand(reflect.TypeOf(sample), handler)
}

// SubscribeQueryOf registers the sole handler for the dynamic type of sample.
func (m *Mediator) SubscribeQueryOf(sample cbus.Query, handler func(ctx context.Context, q any) (any, error)) error {
	if handler == nil {
		return fmt.Errorf("subscribe query %T: nil handler: %w", sample, berr.ErrInvalidMessage)
	}

	return m.bindQuery(reflect.TypeOf(sample), handler)
}

// SubscribeEventOf appends handlers for the dynamic type of sample, skipping any handler
// value already subscribed for that type (== comparison; function adapters never match,
// so subscribing the same EventHandlerFunc twice runs it twice). It never fails.
func (m *Mediator) SubscribeEventOf(sample cbus.Event, handlers ...cbus.EventHandler[cbus.Event]) {
	entries := make([]eventEntry, 0, len(handlers))

	for _, h := range handlers {
		if h == nil {
			continue
		}

		entries = append(entries, eventEntry{
			call: func(ctx context.Context, e any) error { return h.Handle(ctx, e) },
			raw:  h,
		})
	}

	m.bindEvent(reflect.TypeOf(sample), entries)
}

func (m *Mediator) bindCommand(t reflect.Type, f func(context.Context, any) error) error {
	if t == nil {
		return fmt.Errorf("subscribe command: %w", berr.ErrInvalidMessage)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.cmd[t]; exists {
		return fmt.Errorf("subscribe command %s: %w", t.String(), berr.ErrHandlerAlreadyRegistered)
	}

	m.cmd[t] = f

	return nil
}

func (m *Mediator) bindQuery(t reflect.Type, f func(context.Context, any) (any, error)) error {
	if t == nil {
		return fmt.Errorf("subscribe query: %w", berr.ErrInvalidMessage)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.qry[t]; exists {
		return fmt.Errorf("subscribe query %s: %w", t.String(), berr.ErrHandlerAlreadyRegistered)
	}

	m.qry[t] = f

	return nil
}

func (m *Mediator) bindEvent(t reflect.Type, entries []eventEntry) {
	if t == nil {
		m.logger.Warn("subscribe event ignored: nil event sample")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.evt[t]
	for _, ent := range entries {
		if containsHandler(list, ent.raw) {
			continue
		}

		list = append(list, ent)
	}

	m.evt[t] = list
}

func containsHandler(list []eventEntry, raw any) bool {
	for _, ent := range list {
		if sameHandler(ent.raw, raw) {
			return true
		}
	}

	return false
}

// sameHandler compares handler values; uncomparable dynamic types (funcs, maps)
// are never equal to anything.
func sameHandler(a, b any) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()

	return a == b
}

// PublishCommand runs the handler subscribed for the command's dynamic type
// through the global middleware chain. Handler errors are returned unmodified.
func (m *Mediator) PublishCommand(ctx context.Context, cmd cbus.Command) error {
	return m.dispatchWithMiddleware(ctx, cmd)
}

// PublishCommandWithMiddleware runs a command with additional per-call middleware,
// executed after the global chain.
func (m *Mediator) PublishCommandWithMiddleware(ctx context.Context, cmd cbus.Command, mws ...CommandMiddleware) error {
	return m.dispatchWithMiddleware(ctx, cmd, mws...)
}

func (m *Mediator) dispatchWithMiddleware(ctx context.Context, cmd cbus.Command, mws ...CommandMiddleware) error {
	t := reflect.TypeOf(cmd)
	if t == nil {
		return fmt.Errorf("publish command: %w", berr.ErrInvalidMessage)
	}

	m.mu.RLock()
	f, ok := m.cmd[t]
	global := m.cmdMW
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("publish command %s: %w", t.String(), berr.ErrMissingHandler)
	}

	// Combine global and per-call middleware
	chain := make([]CommandMiddleware, 0, len(global)+len(mws))
	chain = append(chain, global...)
	chain = append(chain, mws...)

	// Build chain so the first registered middleware runs first
	final := f
	for i := len(chain) - 1; i >= 0; i-- {
		final = chain[i](final)
	}

	return final(ctx, cmd)
}

// PublishQuery runs the handler subscribed for the query's dynamic type and returns its result.
func (m *Mediator) PublishQuery(ctx context.Context, q cbus.Query) (any, error) {
	t := reflect.TypeOf(q)
	if t == nil {
		return nil, fmt.Errorf("publish query: %w", berr.ErrInvalidMessage)
	}

	m.mu.RLock()
	f, ok := m.qry[t]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("publish query %s: %w", t.String(), berr.ErrMissingHandler)
	}

	return f(ctx, q)
}

// PublishEvent records e in the active published-events log and invokes every handler
// subscribed for its dynamic type, in subscription order.
//
// An event nobody subscribed to is logged as a warning and dropped without being
// recorded. The first handler error stops the fan-out and is returned unmodified.
func (m *Mediator) PublishEvent(ctx context.Context, e cbus.Event) error {
	m.mu.RLock()
	entries := append([]eventEntry(nil), m.evt[reflect.TypeOf(e)]...)
	m.mu.RUnlock()

	if len(entries) == 0 {
		m.logger.WarnContext(ctx, "publishing event failed because of missing subscriber",
			slog.String("event", cbus.TypeName(e)))

		return nil
	}

	m.activeLog(ctx).append(e, m.now())

	for _, ent := range entries {
		if err := ent.call(ctx, e); err != nil {
			return err
		}
	}

	return nil
}
