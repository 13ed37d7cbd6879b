package common

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Exchange string

type Queue string

type BindingKey string

type MessageProducer interface {
	Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error
}

type MessageConsumer interface {
	Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error)
}

const (
	UserExchange       Exchange   = "user_exchange"
	PasswordResetQueue Queue      = "password_reset_queue"
	PasswordResetKey   BindingKey = "user.password_reset"
)

type MessageBroker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewMessageBroker(URI string) (*MessageBroker, error) {
	conn, ch, err := connectAMQP(URI)
	if err != nil {
		return nil, err
	}

	return &MessageBroker{
		conn: conn,
		ch:   ch,
	}, nil
}

func connectAMQP(URI string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(URI)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not open channel: %w", err)
	}

	return conn, ch, nil
}

// Close closes the channel and then the connection. Both are attempted.
func (mb *MessageBroker) Close() error {
	return errors.Join(mb.ch.Close(), mb.conn.Close())
}

type binding struct {
	queue Queue
	key   BindingKey
}

// userBindings lists every durable queue fed by the user exchange.
var userBindings = []binding{
	{queue: PasswordResetQueue, key: PasswordResetKey},
}

// SetupUserExchange declares the user exchange with its queues and bindings.
func SetupUserExchange(mb *MessageBroker) error {
	err := mb.ch.ExchangeDeclare(string(UserExchange), "direct", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("could not declare exchange %s: %w", UserExchange, err)
	}

	for _, b := range userBindings {
		if _, err := mb.ch.QueueDeclare(string(b.queue), true, false, false, false, nil); err != nil {
			return fmt.Errorf("could not declare queue %s: %w", b.queue, err)
		}

		if err := mb.ch.QueueBind(string(b.queue), string(b.key), string(UserExchange), false, nil); err != nil {
			return fmt.Errorf("could not bind queue %s: %w", b.queue, err)
		}
	}

	return nil
}

func (mb *MessageBroker) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	err := mb.ch.PublishWithContext(ctx, string(exchange), string(key), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         msg,
	})
	if err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

// Consume delivers messages of queue one at a time. Each delivery must be acked by the caller.
func (mb *MessageBroker) Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error) {
	if err := mb.ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("could not set prefetch: %w", err)
	}

	msgs, err := mb.ch.Consume(string(queue), string(key), false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("could not consume message: %w", err)
	}

	return msgs, nil
}
