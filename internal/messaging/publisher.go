// Package messaging publishes booking lifecycle events to RabbitMQ so that
// downstream consumers (payment reconciliation, notifications) can react to
// committed and revoked bookings.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys.
const (
	BookingCreated = "booking.created"
	BookingRevoked = "booking.revoked"
)

// BookingEvent is the message body published for every booking change.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	Seats      int       `json:"seats"`
	PaymentUTR string    `json:"payment_utr,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends booking events. Publishing happens after the database
// transaction commits, so a failure never undoes a booking.
type Publisher interface {
	Publish(ctx context.Context, ev BookingEvent) error
	Close() error
}

// Nop is the Publisher used when no broker is configured.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, BookingEvent) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type connection interface {
	Channel() (channel, error)
	IsClosed() bool
	Close() error
}

type amqpConn struct{ *amqp.Connection }

func (c amqpConn) Channel() (channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// dialFunc opens a broker connection.
type dialFunc func(url string) (connection, error)

func dialAMQP(url string) (connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConn{conn}, nil
}

// AMQPPublisher publishes JSON booking events to a durable topic exchange,
// reconnecting lazily when the broker connection drops.
type AMQPPublisher struct {
	url      string
	exchange string
	logger   *slog.Logger
	dial     dialFunc

	mu   sync.Mutex
	conn connection
	ch   channel
}

// NewAMQPPublisher connects to url and declares exchange.
func NewAMQPPublisher(url, exchange string, logger *slog.Logger) (*AMQPPublisher, error) {
	return newAMQPPublisher(url, exchange, logger, dialAMQP)
}

func newAMQPPublisher(url, exchange string, logger *slog.Logger, dial dialFunc) (*AMQPPublisher, error) {
	if exchange == "" {
		return nil, errors.New("amqp exchange name is required")
	}
	p := &AMQPPublisher{url: url, exchange: exchange, logger: logger, dial: dial}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) connectLocked() error {
	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	p.conn = conn
	if err := p.openChannelLocked(); err != nil {
		_ = conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

// openChannelLocked opens a channel on the current connection and declares
// the exchange on it.
func (p *AMQPPublisher) openChannelLocked() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare exchange %q: %w", p.exchange, err)
	}
	p.ch = ch
	return nil
}

// readyLocked makes sure a usable connection and channel exist. The broker
// may close a channel while leaving its connection open.
func (p *AMQPPublisher) readyLocked() error {
	if p.conn == nil || p.conn.IsClosed() {
		p.logger.Warn("broker connection lost, reconnecting", "exchange", p.exchange)
		if p.ch != nil {
			_ = p.ch.Close()
			p.ch = nil
		}
		return p.connectLocked()
	}
	if p.ch == nil {
		p.logger.Warn("broker channel lost, reopening", "exchange", p.exchange)
		return p.openChannelLocked()
	}
	return nil
}

// dropChannelLocked discards the channel after a failed publish so the next
// attempt starts on a fresh one.
func (p *AMQPPublisher) dropChannelLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
}

// Publish implements Publisher. A publish rejected because the channel was
// closed is retried once on a fresh channel.
func (p *AMQPPublisher) Publish(ctx context.Context, ev BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.Type, err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.BookingID,
		Timestamp:    ev.OccurredAt,
		Type:         ev.Type,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for attempt := 1; ; attempt++ {
		if err := p.readyLocked(); err != nil {
			return err
		}
		err = p.ch.PublishWithContext(ctx, p.exchange, ev.Type, false, false, msg)
		if err == nil {
			break
		}
		p.dropChannelLocked()
		if attempt == 2 || !errors.Is(err, amqp.ErrClosed) {
			return fmt.Errorf("publish %s: %w", ev.Type, err)
		}
	}
	p.logger.Debug("published booking event", "type", ev.Type, "booking_id", ev.BookingID)
	return nil
}

// Close shuts the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
		p.ch = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}
