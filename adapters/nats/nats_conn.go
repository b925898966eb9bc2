package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	berr "github.com/next-trace/scg-mediator/contract/errors"
)

const (
	defaultName         = "scg-mediator"
	defaultFlushTimeout = 2 * time.Second
	defaultDrainTimeout = 5 * time.Second
)

// Config describes the connection NewWithNATS opens. Zero values take the defaults above;
// Logger receives connection state changes (slog.Default() when nil).
type Config struct {
	URL           string
	Name          string
	ConnTimeout   time.Duration
	MaxReconnects int
	FlushTimeout  time.Duration // bounds Publish when the export context has no deadline
	DrainTimeout  time.Duration
	Logger        *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = defaultName
	}

	if c.FlushTimeout <= 0 {
		c.FlushTimeout = defaultFlushTimeout
	}

	if c.DrainTimeout <= 0 {
		c.DrainTimeout = defaultDrainTimeout
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	return c
}

// options maps cfg onto nats options. closed is closed once the connection is fully shut down.
func options(cfg Config, closed chan<- struct{}) []nats.Option {
	log := cfg.Logger.With(slog.String("nats", cfg.Name))

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.DrainTimeout(cfg.DrainTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats exporter disconnected", slog.Any("err", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats exporter reconnected", slog.String("url", nc.ConnectedUrlRedacted()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			close(closed)
		}),
	}

	if cfg.ConnTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnTimeout))
	}

	if cfg.MaxReconnects != 0 {
		opts = append(opts, nats.MaxReconnects(cfg.MaxReconnects))
	}

	return opts
}

type natsClient struct {
	nc           *nats.Conn
	flushTimeout time.Duration
}

// Publish sends one message and flushes, so an export only succeeds once the server has the record.
func (c natsClient) Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error {
	msg := nats.NewMsg(subject)
	msg.Data = data

	for k, v := range headers {
		msg.Header.Set(k, v)
	}

	if err := c.nc.PublishMsg(msg); err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); ok {
		return c.nc.FlushWithContext(ctx)
	}

	return c.nc.FlushTimeout(c.flushTimeout)
}

// NewWithNATS connects to cfg.URL and returns an Adapter plus a cleanup that drains the
// connection, waiting at most DrainTimeout for in-flight records to reach the server.
func NewWithNATS(cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: nats url required", berr.ErrExportFailed)
	}

	cfg = cfg.withDefaults()

	closed := make(chan struct{})

	nc, err := nats.Connect(cfg.URL, options(cfg, closed)...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: nats connect: %w", berr.ErrExportFailed, err)
	}

	cleanup := func() {
		if nc.IsClosed() {
			return
		}

		if err := nc.Drain(); err != nil {
			cfg.Logger.Warn("nats exporter drain failed", slog.Any("err", err))
			nc.Close()
		}

		select {
		case <-closed:
		case <-time.After(cfg.DrainTimeout + time.Second):
			nc.Close()
		}
	}

	return New(natsClient{nc: nc, flushTimeout: cfg.FlushTimeout}), cleanup, nil
}
