package mediator

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	cbus "github.com/next-trace/scg-mediator/contract/bus"
	berr "github.com/next-trace/scg-mediator/contract/errors"
)

// WithExportRateLimit throttles ExportPublishedEvents to perSecond records with the given burst.
// A non-positive rate disables throttling.
func WithExportRateLimit(perSecond float64, burst int) Option {
	return func(m *Mediator) {
		if perSecond <= 0 {
			m.limiter = nil
			return
		}

		if burst < 1 {
			burst = 1
		}

		m.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// ExportPublishedEvents sends the records of the active log, in order, to the configured
// exporter. It stops at the first failure and never clears the log.
func (m *Mediator) ExportPublishedEvents(ctx context.Context, opts cbus.ExportOptions) error {
	return m.ExportRecords(ctx, m.activeLog(ctx).snapshot(), opts)
}

// ExportRecords sends recs, in order, to the configured exporter, e.g. the records
// returned by Chain or a Batch outcome. It stops at the first failure.
func (m *Mediator) ExportRecords(ctx context.Context, recs []cbus.Record, opts cbus.ExportOptions) error {
	if m.exporter == nil {
		return fmt.Errorf("export published events: %w", berr.ErrExporterNotConfigured)
	}

	for _, r := range recs {
		if m.limiter != nil {
			if err := m.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		if err := m.exporter.Export(ctx, r, opts); err != nil {
			return fmt.Errorf("export %s: %w", r.Name, err)
		}
	}

	m.logger.DebugContext(ctx, "exported published events", slog.Int("count", len(recs)))

	return nil
}
