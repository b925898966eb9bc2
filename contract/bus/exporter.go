package bus

import "context"

// ExportOptions controls where and how a record is exported.
type ExportOptions struct {
	Subject string // overrides the default "events.<TypeName>" destination
	Headers map[string]string
}

// EventExporter ships published-event records to an external journal
// (broker subject, exchange, topic). Exporters never dispatch back into a mediator.
type EventExporter interface {
	Export(ctx context.Context, rec Record, opts ExportOptions) error
}
