package mediator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	cbus "github.com/next-trace/scg-mediator/contract/bus"
)

// eventLog is one published-events log. Session logs point at the log that was
// active when they were opened; a closed log hands over to that parent.
type eventLog struct {
	mu      sync.Mutex
	records []cbus.Record
	parent  *eventLog
	closed  atomic.Bool
}

func (l *eventLog) append(e cbus.Event, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, cbus.Record{
		ID:          uuid.New(),
		Sequence:    uint64(len(l.records) + 1),
		Name:        cbus.TypeName(e),
		PublishedAt: at,
		Event:       e,
	})
}

func (l *eventLog) snapshot() []cbus.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]cbus.Record(nil), l.records...)
}

func (l *eventLog) flush() {
	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()
}

// sessionKey scopes session logs to one mediator so two mediators can share a context.
type sessionKey struct{ m *Mediator }

func (m *Mediator) activeLog(ctx context.Context) *eventLog {
	l, _ := ctx.Value(sessionKey{m}).(*eventLog)
	for l != nil && l.closed.Load() {
		l = l.parent
	}

	if l == nil {
		return m.ambient
	}

	return l
}

// BeginSession binds a fresh, empty published-events log to the returned context.
// Publications made with that context (and any context derived from it, including
// the ones handlers receive) are recorded there instead of the enclosing log.
//
// The returned end func closes the session; call it with defer. After end, the
// enclosing log is active again, even for the session's context. end is idempotent.
func (m *Mediator) BeginSession(ctx context.Context) (context.Context, func()) {
	parent, _ := ctx.Value(sessionKey{m}).(*eventLog)
	l := &eventLog{parent: parent}

	return context.WithValue(ctx, sessionKey{m}, l), func() { l.closed.Store(true) }
}

// Session runs fn inside a new session and closes it on every exit path,
// including a panic in fn. fn's error is returned unmodified.
func (m *Mediator) Session(ctx context.Context, fn func(ctx context.Context) error) error {
	sctx, end := m.BeginSession(ctx)
	defer end()

	return fn(sctx)
}

// PublishedEvents returns the events of the active log in publication order without clearing it.
func (m *Mediator) PublishedEvents(ctx context.Context) []cbus.Event {
	recs := m.activeLog(ctx).snapshot()

	out := make([]cbus.Event, len(recs))
	for i, r := range recs {
		out[i] = r.Event
	}

	return out
}

// PublishedRecords is PublishedEvents with record metadata.
func (m *Mediator) PublishedRecords(ctx context.Context) []cbus.Record {
	return m.activeLog(ctx).snapshot()
}

// FlushPublishedEvents empties the active log.
func (m *Mediator) FlushPublishedEvents(ctx context.Context) {
	m.activeLog(ctx).flush()
}
