package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/mismatch"
	amqp "github.com/rabbitmq/amqp091-go"
)

const EventMismatchCreated = "mismatch.created"

// MismatchCreatedEvent is the message body consumed by the notification dispatcher.
type MismatchCreatedEvent struct {
	Event          string `json:"event"`
	MismatchID     string `json:"mismatch_id"`
	RunID          string `json:"run_id"`
	WorkerID       string `json:"worker_id"`
	Date           string `json:"date"`
	Category       string `json:"category"`
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation"`
	CreatedAt      string `json:"created_at"`
}

func NewMismatchCreatedEvent(m mismatch.Mismatch) MismatchCreatedEvent {
	return MismatchCreatedEvent{
		Event:          EventMismatchCreated,
		MismatchID:     m.ID,
		RunID:          m.RunID,
		WorkerID:       m.WorkerID,
		Date:           attendance.DateKey(m.Date),
		Category:       string(m.Category),
		Severity:       string(m.Severity),
		Recommendation: m.Recommendation,
		CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Publisher sends mismatch events to a durable topic exchange. The channel is
// reopened on the next publish after the broker closes it.
type Publisher struct {
	url        string
	exchange   string
	routingKey string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

var _ mismatch.EventPublisher = (*Publisher)(nil)

func NewPublisher(url, exchange, routingKey string) (*Publisher, error) {
	if routingKey == "" {
		routingKey = EventMismatchCreated
	}
	p := &Publisher{url: url, exchange: exchange, routingKey: routingKey}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.channel(); err != nil {
		return nil, err
	}
	return p, nil
}

// channel returns an open channel, dialing and declaring the exchange when needed. Callers hold mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open publish channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err, ok := <-closed; ok && err != nil {
			slog.Warn("Publisher channel closed, will recreate on next publish",
				"component", "rabbitmq",
				"error", err,
			)
		}
	}()

	p.ch = ch
	slog.Info("Publisher channel created", "component", "rabbitmq", "exchange", p.exchange)
	return ch, nil
}

// PublishCreated implements mismatch.EventPublisher.
func (p *Publisher) PublishCreated(ctx context.Context, m mismatch.Mismatch) error {
	body, err := json.Marshal(NewMismatchCreatedEvent(m))
	if err != nil {
		return fmt.Errorf("failed to marshal mismatch event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx,
		p.exchange,
		p.routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    m.ID,
			Type:         EventMismatchCreated,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish mismatch %s: %w", m.ID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && !p.ch.IsClosed() {
		_ = p.ch.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn.Close()
	}
	return nil
}
