package memory

import (
	"log/slog"

	"github.com/next-trace/scg-mediator/adapters/inmemory"
	"github.com/next-trace/scg-mediator/mediator"
)

// New constructs a mediator whose published events export to an in-memory exporter,
// and returns both.
func New(logger *slog.Logger, opts ...mediator.Option) (*mediator.Mediator, *inmemory.Exporter) {
	ex := inmemory.New()

	return mediator.New(ex, logger, opts...), ex
}
