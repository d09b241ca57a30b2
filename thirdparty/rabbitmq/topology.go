package rabbitmq

import (
	"fmt"

	"github.com/muhammadheryan/stock-reservation/cmd/config"
	"github.com/rabbitmq/amqp091-go"
)

const (
	expirationExchange   = "reservation_expiration_exchange"
	expirationQueue      = "reservation_expiration_queue"
	expirationRoutingKey = "reservation_expiration"

	// InvalidStateQueue receives an alert per quarantined reservation.
	InvalidStateQueue = "reservation_invalid_state_queue"
)

func dial(cfg config.RabbitMQConfig) (*amqp091.Connection, *amqp091.Channel, error) {
	dsn := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.User, cfg.Password, cfg.Host, cfg.Port)
	conn, err := amqp091.Dial(dsn)
	if err != nil {
		return nil, nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, channel, nil
}

// declareExpiration declares the delayed exchange (rabbitmq_delayed_message_exchange plugin) and its queue.
func declareExpiration(channel *amqp091.Channel) error {
	err := channel.ExchangeDeclare(
		expirationExchange,
		"x-delayed-message",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		amqp091.Table{"x-delayed-type": "direct"},
	)
	if err != nil {
		return err
	}

	if _, err = channel.QueueDeclare(expirationQueue, true, false, false, false, nil); err != nil {
		return err
	}

	return channel.QueueBind(expirationQueue, expirationRoutingKey, expirationExchange, false, nil)
}

func declareAlerts(channel *amqp091.Channel) error {
	_, err := channel.QueueDeclare(InvalidStateQueue, true, false, false, false, nil)
	return err
}

func closeAll(conn *amqp091.Connection, channel *amqp091.Channel) {
	if channel != nil {
		channel.Close()
	}
	if conn != nil {
		conn.Close()
	}
}
