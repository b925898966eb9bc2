package bus

import (
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Record is one entry of a published-events log.
type Record struct {
	ID          uuid.UUID
	Sequence    uint64 // 1-based position within the log it was appended to
	Name        string // TypeName of Event
	PublishedAt time.Time
	Event       Event
}

// Envelope is the wire shape exporters serialize a Record into.
type Envelope struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Sequence    uint64    `json:"sequence"`
	PublishedAt time.Time `json:"published_at"`
	Payload     Event     `json:"payload"`
}

// Header keys set on every exported record.
const (
	HeaderEventID       = "event-id"
	HeaderEventName     = "event-name"
	HeaderEventSequence = "event-sequence"
)

// SubjectPrefix is used to derive a destination when ExportOptions.Subject is empty.
const SubjectPrefix = "events."

// NewEnvelope converts a Record into its wire shape.
func NewEnvelope(r Record) Envelope {
	return Envelope{
		ID:          r.ID.String(),
		Name:        r.Name,
		Sequence:    r.Sequence,
		PublishedAt: r.PublishedAt.UTC(),
		Payload:     r.Event,
	}
}

// Subject returns the destination for r: the override in o, else SubjectPrefix + r.Name.
func Subject(r Record, o ExportOptions) string {
	if o.Subject != "" {
		return o.Subject
	}

	return SubjectPrefix + r.Name
}

// Headers merges o.Headers with the record identity headers. The caller's map is not mutated.
func Headers(r Record, o ExportOptions) map[string]string {
	h := make(map[string]string, len(o.Headers)+3)
	for k, v := range o.Headers {
		h[k] = v
	}

	h[HeaderEventID] = r.ID.String()
	h[HeaderEventName] = r.Name
	h[HeaderEventSequence] = strconv.FormatUint(r.Sequence, 10)

	return h
}

// TypeName returns the unqualified type name of v, dereferencing pointers.
func TypeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	name := t.Name()
	if name == "" { // unnamed (e.g., map/struct literal)
		name = t.String()
	}

	return name
}
