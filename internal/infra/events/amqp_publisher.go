package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
)

const QueueName = "booking.events"

// Message is the JSON body published for every booking event.
type Message struct {
	Action     string    `json:"action"`
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entity_id"`
	TenantID   uint      `json:"tenant_id"`
	UserID     *uint     `json:"user_id,omitempty"`
	Metadata   any       `json:"metadata,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends audit events to RabbitMQ. The connection is opened
// lazily and reopened after failures.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

var _ audit.Sink = (*Publisher)(nil)

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

func NewMessage(ev audit.Event) Message {
	return Message{
		Action:     ev.Action,
		Entity:     ev.Entity,
		EntityID:   ev.EntityID,
		TenantID:   ev.TenantID,
		UserID:     ev.UserID,
		Metadata:   ev.Metadata,
		OccurredAt: ev.OccurredAt,
	}
}

func (p *Publisher) Publish(ctx context.Context, ev audit.Event) error {
	body, err := json.Marshal(NewMessage(ev))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		log.Printf("rabbitmq: channel unavailable: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Type:         ev.Action,
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", QueueName, false, false, pub); err != nil {
		p.reset()
		return err
	}
	return nil
}

// channel must be called with mu held.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}
