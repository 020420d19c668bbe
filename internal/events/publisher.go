// Package events announces finished video jobs on a RabbitMQ exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kiranshivaraju/contentdesk/internal/config"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// VideoMessage is the JSON body published for each terminal video transition.
type VideoMessage struct {
	Event     string            `json:"event"` // "video.completed", "video.failed" or "video.abandoned"
	Video     models.VideoEvent `json:"video"`
	Timestamp time.Time         `json:"timestamp"`
}

// EventName derives the message event name from the terminal video status.
func EventName(status string) string {
	return "video." + status
}

// Publisher publishes VideoMessages to a durable direct exchange.
type Publisher struct {
	conn       *amqp.Connection
	mu         sync.Mutex
	channel    *amqp.Channel
	exchange   string
	routingKey string
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewPublisher dials RabbitMQ and declares the exchange, queue and binding.
func NewPublisher(cfg config.RabbitMQConfig, clock clockwork.Clock, logger *slog.Logger) (*Publisher, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "events")

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declare(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &Publisher{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		clock:      clock,
		logger:     logger,
	}, nil
}

func declare(ch *amqp.Channel, cfg config.RabbitMQConfig) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Notify publishes event as a persistent JSON message.
func (p *Publisher) Notify(ctx context.Context, event models.VideoEvent) error {
	now := p.clock.Now().UTC()
	msg := VideoMessage{
		Event:     EventName(event.Video.Status),
		Video:     event,
		Timestamp: now,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    now,
		MessageId:    event.Provider + ":" + event.JobID,
	})
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	p.logger.Debug("published video event",
		"content_id", event.ContentID,
		"provider", event.Provider,
		"event", msg.Event,
	)
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Noop discards events. It is used when RABBITMQ_URL is unset.
type Noop struct{}

func (Noop) Notify(context.Context, models.VideoEvent) error { return nil }

func (Noop) Close() error { return nil }
