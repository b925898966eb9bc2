// Package bootstrap builds a mediator and its event exporter from configuration.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/next-trace/scg-mediator/adapters/inmemory"
	"github.com/next-trace/scg-mediator/adapters/kafka"
	"github.com/next-trace/scg-mediator/adapters/nats"
	"github.com/next-trace/scg-mediator/adapters/rabbitmq"
	cbus "github.com/next-trace/scg-mediator/contract/bus"
	"github.com/next-trace/scg-mediator/internal/config"
	"github.com/next-trace/scg-mediator/mediator"
)

// Runtime is a configured mediator plus what callers need to export from it.
type Runtime struct {
	Mediator      *mediator.Mediator
	ExportOptions cbus.ExportOptions
	// Memory is set when the exporter kind is "memory".
	Memory *inmemory.Exporter
}

func noop() {}

// BuildExporter returns the exporter selected by cfg.Kind and a cleanup func that releases its connection.
// Kind "none" yields a nil exporter. logger receives broker connection state changes.
func BuildExporter(cfg config.ExporterConfig, logger *slog.Logger) (cbus.EventExporter, *inmemory.Exporter, func(), error) {
	switch cfg.Kind {
	case config.ExporterNone, "":
		return nil, nil, noop, nil
	case config.ExporterMemory:
		mem := inmemory.New()
		return mem, mem, noop, nil
	case config.ExporterNATS:
		ad, cleanup, err := nats.NewWithNATS(nats.Config{
			URL:           cfg.NATS.URL,
			Name:          cfg.NATS.Name,
			ConnTimeout:   cfg.NATS.ConnTimeout,
			MaxReconnects: cfg.NATS.MaxReconnects,
			Logger:        logger,
		})
		if err != nil {
			return nil, nil, noop, fmt.Errorf("nats exporter: %w", err)
		}

		return ad, nil, cleanup, nil
	case config.ExporterRabbitMQ:
		ad, cleanup, err := rabbitmq.NewWithAMQPConn(rabbitmq.Config{
			URL:         cfg.RabbitMQ.URL,
			Exchange:    cfg.RabbitMQ.Exchange,
			ConnTimeout: cfg.RabbitMQ.ConnTimeout,
		})
		if err != nil {
			return nil, nil, noop, fmt.Errorf("rabbitmq exporter: %w", err)
		}

		return ad, nil, cleanup, nil
	case config.ExporterKafka:
		ad, cleanup, err := kafka.NewWithKgo(kafka.Config{
			Brokers:    cfg.Kafka.Brokers,
			ClientID:   cfg.Kafka.ClientID,
			Idempotent: true,
		})
		if err != nil {
			return nil, nil, noop, fmt.Errorf("kafka exporter: %w", err)
		}

		return ad, nil, cleanup, nil
	default:
		return nil, nil, noop, fmt.Errorf("unknown exporter kind %q", cfg.Kind)
	}
}

// New builds the runtime for cfg. The returned cleanup must be called once the runtime is no longer used.
func New(cfg *config.Config, logger *slog.Logger) (*Runtime, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	exporter, mem, cleanup, err := BuildExporter(cfg.Exporter, logger)
	if err != nil {
		return nil, nil, err
	}

	var opts []mediator.Option
	if cfg.Exporter.RatePerSecond > 0 {
		opts = append(opts, mediator.WithExportRateLimit(cfg.Exporter.RatePerSecond, cfg.Exporter.Burst))
	}

	logger.Debug("mediator built", "exporter", cfg.Exporter.Kind)

	return &Runtime{
		Mediator:      mediator.New(exporter, logger, opts...),
		ExportOptions: cbus.ExportOptions{Subject: cfg.Exporter.Subject},
		Memory:        mem,
	}, cleanup, nil
}
