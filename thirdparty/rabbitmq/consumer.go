package rabbitmq

import (
	"context"
	"encoding/json"

	"github.com/muhammadheryan/stock-reservation/cmd/config"
	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
	cerr "github.com/muhammadheryan/stock-reservation/utils/errors"
	"github.com/muhammadheryan/stock-reservation/utils/logger"
	"github.com/muhammadheryan/stock-reservation/utils/metrics"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Expirer is the subset of the reservation app the consumer drives.
type Expirer interface {
	ExpireReservation(ctx context.Context, reservationID string) (*model.Reservation, error)
}

type Consumer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	expirer Expirer
}

func NewConsumer(cfg config.RabbitMQConfig, expirer Expirer) (*Consumer, error) {
	conn, channel, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	if err := declareExpiration(channel); err != nil {
		closeAll(conn, channel)
		return nil, err
	}

	return &Consumer{conn: conn, channel: channel, expirer: expirer}, nil
}

// Start consumes delayed expiration messages until ctx is done or the channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		expirationQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn("[Consumer] delivery channel closed")
					return
				}
				// the sweeper is the authoritative expiry path, so a failed delivery is never requeued
				metrics.ExpirationMessages.WithLabelValues(handleExpiration(ctx, c.expirer, msg.Body)).Inc()
				if err := msg.Ack(false); err != nil {
					logger.Warn("[Consumer] ack expiration message", zap.String("error", err.Error()))
				}
			}
		}
	}()

	return nil
}

// handleExpiration expires the reservation named in body and returns the outcome label.
func handleExpiration(ctx context.Context, expirer Expirer, body []byte) string {
	var msg model.ReservationExpirationMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.ReservationID == "" {
		logger.Error("[Consumer] drop malformed expiration message", zap.ByteString("body", body))
		return metrics.OutcomeRejected
	}

	_, err := expirer.ExpireReservation(ctx, msg.ReservationID)
	switch {
	case err == nil:
		logger.Info("[Consumer] reservation expired", zap.String("reservation_id", msg.ReservationID))
		return metrics.OutcomeOK
	case cerr.IsType(err, constant.ErrReservationAlreadyTerminal),
		cerr.IsType(err, constant.ErrReservationNotFound),
		cerr.IsType(err, constant.ErrInvalidState):
		return metrics.OutcomeRejected
	case cerr.IsType(err, constant.ErrReservationNotExpired):
		// delivered ahead of the hold; the sweeper picks it up once it lapses
		logger.Debug("[Consumer] expiration delivered early", zap.String("reservation_id", msg.ReservationID))
		return metrics.OutcomeRejected
	default:
		logger.Error("[Consumer] expire reservation, left for the sweeper",
			zap.String("reservation_id", msg.ReservationID), zap.String("error", err.Error()))
		return metrics.OutcomeError
	}
}

func (c *Consumer) Close() error {
	closeAll(c.conn, c.channel)
	return nil
}
