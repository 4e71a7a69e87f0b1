package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher sends activity events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev ActivityEvent) error
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ActivityEvent) error { return nil }

// AMQPPublisher publishes events as persistent JSON messages to a durable
// RabbitMQ queue.  Each call opens its own connection so a broker restart
// never leaves the publisher holding a dead channel.
type AMQPPublisher struct {
	url   string
	queue string
	log   zerolog.Logger
}

// NewAMQPPublisher returns a publisher for the given broker URL and queue.
func NewAMQPPublisher(url, queue string, logger zerolog.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: queue, log: logger.With().Str("component", "publisher").Logger()}
}

// Publish sends ev.  Errors are logged and returned so the caller can
// choose to ignore them.
func (p *AMQPPublisher) Publish(ctx context.Context, ev ActivityEvent) error {
	if err := p.publish(ctx, ev); err != nil {
		p.log.Warn().Err(err).Str("type", ev.Type).Msg("publish failed")
		return err
	}
	return nil
}

func (p *AMQPPublisher) publish(ctx context.Context, ev ActivityEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// ErrClosed is returned by Async.Publish after Close.
var ErrClosed = errors.New("publisher closed")

// Async wraps a Publisher so Publish returns immediately; delivery happens
// on a background goroutine with its own timeout.  Close waits for the
// deliveries still in flight.
type Async struct {
	next    Publisher
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.Mutex // guards closed and wg.Add against Close
	closed bool
	wg     sync.WaitGroup
}

// NewAsync returns an Async publisher delegating to next.
func NewAsync(next Publisher, timeout time.Duration, logger zerolog.Logger) *Async {
	return &Async{next: next, timeout: timeout, log: logger.With().Str("component", "async_publisher").Logger()}
}

// Publish schedules delivery of ev and returns at once.  The caller's
// context is not used; a request ending must not cancel its event.
func (a *Async) Publish(_ context.Context, ev ActivityEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.next.Publish(ctx, ev); err != nil {
			a.log.Error().Err(err).Str("type", ev.Type).Msg("activity event lost")
		}
	}()
	return nil
}

// Close stops accepting events and waits for pending deliveries or for ctx
// to end, whichever comes first.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		a.log.Warn().Err(ctx.Err()).Msg("pending activity events abandoned")
		return ctx.Err()
	}
}
