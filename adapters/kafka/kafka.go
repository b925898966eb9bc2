package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	cbus "github.com/next-trace/scg-mediator/contract/bus"
	berr "github.com/next-trace/scg-mediator/contract/errors"
)

// Writer is a minimal Kafka-like writer interface.
// Users can adapt segmentio/kafka-go or any other client to this.
type Writer interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Adapter implements cbus.EventExporter using an injected Writer.
type Adapter struct {
	Writer Writer
}

var _ cbus.EventExporter = (*Adapter)(nil)

// New creates a new Kafka adapter instance with the provided writer.
func New(w Writer) *Adapter { return &Adapter{Writer: w} }

// Export writes rec as a JSON envelope to topic bus.Subject(rec, opts), keyed by the record id.
func (a *Adapter) Export(ctx context.Context, rec cbus.Record, opts cbus.ExportOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Writer == nil {
		return fmt.Errorf("kafka export: %w", berr.ErrExportFailed)
	}

	val, err := json.Marshal(cbus.NewEnvelope(rec))
	if err != nil {
		return fmt.Errorf("kafka export serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	topic := cbus.Subject(rec, opts)
	key := []byte(rec.ID.String())

	if err = a.Writer.Write(ctx, topic, key, val, cbus.Headers(rec, opts)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("kafka export to %q: %w", topic, errors.Join(berr.ErrExportFailed, err))
	}

	return nil
}
