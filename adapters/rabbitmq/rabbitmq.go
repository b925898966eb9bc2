package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	cbus "github.com/next-trace/scg-mediator/contract/bus"
	berr "github.com/next-trace/scg-mediator/contract/errors"
)

// ExchangeName is the topic exchange records are published to unless Adapter.Exchange overrides it.
const ExchangeName = "mediator.events"

type PubMsg struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Headers    map[string]string
}

type Publisher interface {
	Publish(ctx context.Context, m PubMsg) error
}

type Adapter struct {
	Publisher  Publisher
	Exchange   string
	Propagator cbus.HeaderPropagator // optional, for context propagation into headers
}

var _ cbus.EventExporter = (*Adapter)(nil)

func New(p Publisher) *Adapter { return &Adapter{Publisher: p, Exchange: ExchangeName} }

// NewWithPropagator allows configuring a HeaderPropagator for context propagation.
func NewWithPropagator(p Publisher, hp cbus.HeaderPropagator) *Adapter {
	return &Adapter{Publisher: p, Exchange: ExchangeName, Propagator: hp}
}

// Export publishes rec as a JSON envelope with routing key bus.Subject(rec, opts).
func (a *Adapter) Export(ctx context.Context, rec cbus.Record, opts cbus.ExportOptions) error {
	if err := a.ready(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(cbus.NewEnvelope(rec))
	if err != nil {
		return fmt.Errorf("rabbitmq export serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	hdrs := cbus.Headers(rec, opts)
	// Inject tracing context via configured propagator (keeps adapter decoupled)
	if a.Propagator != nil {
		a.Propagator.Inject(ctx, hdrs)
	}

	msg := PubMsg{
		Exchange:   a.Exchange,
		RoutingKey: cbus.Subject(rec, opts),
		Body:       body,
		Headers:    hdrs,
	}
	if err := a.Publisher.Publish(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("rabbitmq export publish: %w", errors.Join(berr.ErrExportFailed, err))
	}

	return nil
}

func (a *Adapter) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Publisher == nil {
		return fmt.Errorf("rabbitmq export: %w", berr.ErrExportFailed)
	}

	return nil
}

func toTable(headers map[string]string) amqp.Table {
	if len(headers) == 0 {
		return nil
	}

	h := amqp.Table{}
	for k, v := range headers {
		h[k] = v
	}

	return h
}

// publishing builds the AMQP message for one exported record. The record id and
// type name double as message id and type so consumers need not parse headers.
func publishing(m PubMsg) amqp.Publishing {
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		MessageId:    m.Headers[cbus.HeaderEventID],
		Type:         m.Headers[cbus.HeaderEventName],
		Headers:      toTable(m.Headers),
		ContentType:  "application/json",
		Body:         m.Body,
	}
}

type amqpChannelPublisher struct{ ch *amqp.Channel }

func (p amqpChannelPublisher) Publish(ctx context.Context, m PubMsg) error {
	return p.ch.PublishWithContext(ctx, m.Exchange, m.RoutingKey, false, false, publishing(m))
}

// NewWithAMQPChannel wraps an open channel. The caller owns the channel and the exchange declaration.
func NewWithAMQPChannel(ch *amqp.Channel) *Adapter {
	return New(amqpChannelPublisher{ch: ch})
}
