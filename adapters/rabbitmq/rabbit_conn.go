package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	berr "github.com/next-trace/scg-mediator/contract/errors"
)

const (
	exchangeKind = "topic"
	productName  = "scg-mediator"

	defaultBackoffMin = time.Second
	defaultBackoffMax = 30 * time.Second
)

type Config struct {
	URL         string
	Exchange    string // defaults to ExchangeName
	ConnTimeout time.Duration
}

// amqpChannel is the part of *amqp.Channel the reconnecting publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// amqpSession is one live connection+channel pair. Either lost channel firing ends it.
type amqpSession struct {
	ch       amqpChannel
	connLost <-chan *amqp.Error
	chanLost <-chan *amqp.Error
	close    func()
}

type dialFunc func(ctx context.Context) (*amqpSession, error)

// dialAMQP connects to cfg.URL and declares the events exchange.
func dialAMQP(cfg Config) dialFunc {
	return func(context.Context) (*amqpSession, error) {
		conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
			Locale:     "en_US",
			Properties: amqp.Table{"product": productName},
			Dial:       amqp.DefaultDial(cfg.ConnTimeout),
		})
		if err != nil {
			return nil, err
		}

		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, err
		}

		if err := ch.ExchangeDeclare(cfg.Exchange, exchangeKind, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()

			return nil, fmt.Errorf("declare exchange %q: %w", cfg.Exchange, err)
		}

		return &amqpSession{
			ch:       ch,
			connLost: conn.NotifyClose(make(chan *amqp.Error, 1)),
			chanLost: ch.NotifyClose(make(chan *amqp.Error, 1)),
			close: func() {
				_ = ch.Close()
				_ = conn.Close()
			},
		}, nil
	}
}

// reconnectingPublisher keeps one channel open in the background and redials with
// jittered exponential backoff whenever the connection or channel is lost.
//
// ready is closed exactly while ch is non-nil; both are only touched under mu.
type reconnectingPublisher struct {
	dial       dialFunc
	backoffMin time.Duration
	backoffMax time.Duration

	mu    sync.Mutex
	ch    amqpChannel
	ready chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newReconnectingPublisher(dial dialFunc) *reconnectingPublisher {
	ctx, cancel := context.WithCancel(context.Background())

	return &reconnectingPublisher{
		dial:       dial,
		backoffMin: defaultBackoffMin,
		backoffMax: defaultBackoffMax,
		ready:      make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

func (rp *reconnectingPublisher) start() { go rp.run() }

// Publish sends m on the current channel, waiting for a connection when there is none.
// A channel found closed mid-publish is dropped and the publish waits for the next one.
func (rp *reconnectingPublisher) Publish(ctx context.Context, m PubMsg) error {
	for {
		ch, ready := rp.current()
		if ch == nil {
			select {
			case <-ready:
				continue
			case <-ctx.Done():
				return ctx.Err()
			case <-rp.ctx.Done():
				return fmt.Errorf("%w: rabbitmq publisher closed", berr.ErrExportFailed)
			}
		}

		err := ch.PublishWithContext(ctx, m.Exchange, m.RoutingKey, false, false, publishing(m))
		if errors.Is(err, amqp.ErrClosed) {
			rp.invalidate(ch)
			continue
		}

		return err
	}
}

func (rp *reconnectingPublisher) current() (amqpChannel, <-chan struct{}) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	return rp.ch, rp.ready
}

// install publishes s.ch to waiters. It refuses once the publisher is closed.
func (rp *reconnectingPublisher) install(s *amqpSession) bool {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.ctx.Err() != nil {
		return false
	}

	rp.ch = s.ch
	close(rp.ready)

	return true
}

// invalidate drops ch if it is still current, so publishers wait for the next session.
func (rp *reconnectingPublisher) invalidate(ch amqpChannel) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.ch == nil || rp.ch != ch {
		return
	}

	rp.ch = nil
	rp.ready = make(chan struct{})
}

func (rp *reconnectingPublisher) run() {
	defer close(rp.done)

	backoff := rp.backoffMin

	for {
		s, err := rp.dial(rp.ctx)
		if err != nil {
			if !rp.sleep(backoff) {
				return
			}

			backoff = min(backoff*2, rp.backoffMax)

			continue
		}

		backoff = rp.backoffMin

		if !rp.install(s) {
			s.close()
			return
		}

		select {
		case <-rp.ctx.Done():
		case <-s.connLost:
		case <-s.chanLost:
		}

		rp.invalidate(s.ch)
		s.close()

		if rp.ctx.Err() != nil {
			return
		}
	}
}

// sleep waits d plus up to 50% jitter; false means the publisher was closed meanwhile.
func (rp *reconnectingPublisher) sleep(d time.Duration) bool {
	d += rand.N(d/2 + 1) //nolint:gosec // jitter, not crypto

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-rp.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// close stops reconnecting, closes the live session and waits for the background loop to exit.
func (rp *reconnectingPublisher) close() {
	rp.cancel()
	<-rp.done
}

// NewWithAMQPConn dials RabbitMQ in the background with auto-reconnect and returns the Adapter
// and a cleanup that closes the connection. Exports block until the first connection is up
// or their context ends.
func NewWithAMQPConn(cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: rabbitmq url required", berr.ErrExportFailed)
	}

	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}

	pub := newReconnectingPublisher(dialAMQP(cfg))
	pub.start()

	ad := New(pub)
	ad.Exchange = cfg.Exchange

	return ad, pub.close, nil
}
