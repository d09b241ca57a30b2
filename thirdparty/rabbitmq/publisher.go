package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/muhammadheryan/stock-reservation/cmd/config"
	"github.com/muhammadheryan/stock-reservation/model"
	"github.com/rabbitmq/amqp091-go"
)

// Publisher schedules delayed expiry attempts and emits invalid-state alerts.
// It satisfies the reservation app's ExpirationPublisher and Alerter.
type Publisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	mu      sync.Mutex
	now     func() time.Time
}

func NewPublisher(cfg config.RabbitMQConfig) (*Publisher, error) {
	conn, channel, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	if err := declareExpiration(channel); err != nil {
		closeAll(conn, channel)
		return nil, err
	}
	if err := declareAlerts(channel); err != nil {
		closeAll(conn, channel)
		return nil, err
	}

	return &Publisher{conn: conn, channel: channel, now: time.Now}, nil
}

func (p *Publisher) PublishReservationExpiration(ctx context.Context, msg model.ReservationExpirationMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.publish(ctx, expirationExchange, expirationRoutingKey, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    msg.ReservationID,
		Body:         body,
		Headers: amqp091.Table{
			"x-delay": delayMillis(msg.ExpiresAt, p.now()),
		},
	})
}

func (p *Publisher) PublishInvalidState(ctx context.Context, alert model.InvalidStateAlert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	return p.publish(ctx, "", InvalidStateQueue, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    alert.ReservationID,
		Timestamp:    alert.DetectedAt,
		Body:         body,
	})
}

func (p *Publisher) publish(ctx context.Context, exchange, key string, msg amqp091.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx, exchange, key, false, false, msg)
}

func (p *Publisher) Close() error {
	closeAll(p.conn, p.channel)
	return nil
}

// delayMillis never goes negative; an already lapsed hold is delivered right away.
func delayMillis(expiresAt, now time.Time) int64 {
	d := expiresAt.Sub(now).Milliseconds()
	if d < 0 {
		return 0
	}
	return d
}
