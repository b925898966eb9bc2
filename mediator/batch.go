package mediator

import (
	"context"
	"errors"
	"fmt"

	cbus "github.com/next-trace/scg-mediator/contract/bus"
)

// Chain publishes cmds in order inside one session and returns the records that session
// collected. It stops at the first error; records published before the failure are still returned.
func (m *Mediator) Chain(ctx context.Context, cmds ...cbus.Command) ([]cbus.Record, error) {
	sctx, end := m.BeginSession(ctx)
	defer end()

	for _, c := range cmds {
		if err := m.dispatchWithMiddleware(sctx, c); err != nil {
			return m.PublishedRecords(sctx), err
		}
	}

	return m.PublishedRecords(sctx), nil
}

// Outcome is what one command of a Batch caused: the records of its own session and its error.
type Outcome struct {
	Command cbus.Command
	Records []cbus.Record
	Err     error
}

type batchOptions struct {
	onProgress func(done, total int)
	onError    func(index int, o Outcome)
}

// BatchOpt configures Batch.
type BatchOpt func(*batchOptions)

// WithBatchProgress is called after each command completes, successful or not.
func WithBatchProgress(fn func(done, total int)) BatchOpt {
	return func(o *batchOptions) { o.onProgress = fn }
}

// WithBatchOnError is called for each failed command with its position in the batch.
func WithBatchOnError(fn func(index int, o Outcome)) BatchOpt {
	return func(o *batchOptions) { o.onError = fn }
}

// Batch publishes every command, each in its own session, and keeps going after failures.
// Outcomes line up with cmds up to the point ctx ended; failures are joined into the returned error.
func (m *Mediator) Batch(ctx context.Context, cmds []cbus.Command, opts ...BatchOpt) ([]Outcome, error) {
	var o batchOptions
	for _, f := range opts {
		f(&o)
	}

	outcomes := make([]Outcome, 0, len(cmds))

	var errs []error

	for i, c := range cmds {
		if err := ctx.Err(); err != nil {
			return outcomes, errors.Join(append(errs, err)...)
		}

		out := m.isolated(ctx, c)
		outcomes = append(outcomes, out)

		if out.Err != nil {
			errs = append(errs, fmt.Errorf("batch command %d %s: %w", i, cbus.TypeName(c), out.Err))

			if o.onError != nil {
				o.onError(i, out)
			}
		}

		if o.onProgress != nil {
			o.onProgress(i+1, len(cmds))
		}
	}

	return outcomes, errors.Join(errs...)
}

func (m *Mediator) isolated(ctx context.Context, c cbus.Command) Outcome {
	out := Outcome{Command: c}

	out.Err = m.Session(ctx, func(sctx context.Context) error {
		err := m.dispatchWithMiddleware(sctx, c)
		out.Records = m.PublishedRecords(sctx)

		return err
	})

	return out
}
