package inmemory

import (
	"context"
	"sync"

	cbus "github.com/next-trace/scg-mediator/contract/bus"
)

// Exporter is a thread-safe in-memory implementation of cbus.EventExporter.
// It records exported records for testing and examples.
type Exporter struct {
	mu      sync.Mutex
	records []cbus.Record
	opts    []cbus.ExportOptions
}

// Ensure Exporter implements the contract.
var _ cbus.EventExporter = (*Exporter)(nil)

// New creates a new in-memory exporter instance.
func New() *Exporter { return &Exporter{} }

func (e *Exporter) Export(ctx context.Context, rec cbus.Record, opts cbus.ExportOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	e.records = append(e.records, rec)
	e.opts = append(e.opts, opts)
	e.mu.Unlock()

	return nil
}

// Records returns a copy of the exported records in export order.
func (e *Exporter) Records() []cbus.Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]cbus.Record(nil), e.records...)
}

// Options returns the options each record was exported with, index-aligned with Records.
func (e *Exporter) Options() []cbus.ExportOptions {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]cbus.ExportOptions(nil), e.opts...)
}

// Reset drops everything recorded so far.
func (e *Exporter) Reset() {
	e.mu.Lock()
	e.records = nil
	e.opts = nil
	e.mu.Unlock()
}
