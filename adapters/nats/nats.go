package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	cbus "github.com/next-trace/scg-mediator/contract/bus"
	berr "github.com/next-trace/scg-mediator/contract/errors"
)

// Client is a minimal NATS-like publisher interface decoupled from any concrete library.
// Users can provide a wrapper around their NATS connection to satisfy this.
type Client interface {
	// Publish publishes a message to a subject with optional headers and returns once
	// the server has it or ctx ends.
	Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error
}

// Adapter implements cbus.EventExporter using an injected NATS-like Client.
type Adapter struct {
	Client Client
}

// Ensure Adapter implements the contract.
var _ cbus.EventExporter = (*Adapter)(nil)

// New creates a new NATS adapter instance with the provided client.
func New(c Client) *Adapter { return &Adapter{Client: c} }

// Export publishes rec as a JSON envelope on bus.Subject(rec, opts).
func (a *Adapter) Export(ctx context.Context, rec cbus.Record, opts cbus.ExportOptions) error {
	if err := a.ready(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(cbus.NewEnvelope(rec))
	if err != nil {
		return fmt.Errorf("nats export serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	return a.publish(ctx, cbus.Subject(rec, opts), body, cbus.Headers(rec, opts))
}

func (a *Adapter) publish(ctx context.Context, subject string, body []byte, headers map[string]string) error {
	if err := a.Client.Publish(ctx, subject, body, headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("nats export publish: %w", errors.Join(berr.ErrExportFailed, err))
	}

	return nil
}

func (a *Adapter) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Client == nil {
		return fmt.Errorf("nats export: %w", berr.ErrExportFailed)
	}

	return nil
}
