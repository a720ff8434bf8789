package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"trainerworkload/internal/ingest"
	applog "trainerworkload/internal/log"
)

// ErrRejected marks handler errors that must not be redelivered.
var ErrRejected = errors.New("message rejected")

type outcome int

const (
	outcomeAck outcome = iota
	outcomeReject
	outcomeRequeue
)

// Handler processes one decoded training message.
type Handler func(ctx context.Context, msg *TrainingMessage) error

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	// One unacked delivery at a time keeps per-trainer arrival order.
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	return nil
}

// PublishTrainingEvent publishes a persistent training message.
func (c *Client) PublishTrainingEvent(ctx context.Context, raw ingest.RawEvent) error {
	msg := NewTrainingMessage(raw)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.MessageID,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published training message",
		applog.FieldComponent, applog.ComponentAMQP,
		applog.FieldOperation, applog.OpPublish,
		applog.FieldMessageID, msg.MessageID,
		applog.FieldUsername, raw.Username,
		"exchange", c.exchangeName,
		applog.FieldQueue, c.queueName)

	return nil
}

// ConsumeTrainingEvents delivers messages to handler until ctx is done.
// Undecodable bodies and ErrRejected errors are dropped, other handler
// errors are requeued, successes are acked.
func (c *Client) ConsumeTrainingEvents(ctx context.Context, handler Handler) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming training messages",
		applog.FieldComponent, applog.ComponentAMQP,
		applog.FieldOperation, applog.OpConsume,
		applog.FieldQueue, c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption",
				applog.FieldComponent, applog.ComponentAMQP,
				applog.FieldOperation, applog.OpConsume,
				"reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.process(ctx, delivery, handler)
		}
	}
}

func (c *Client) process(ctx context.Context, delivery amqp091.Delivery, handler Handler) {
	fields := applog.NewFields().
		WithComponent(applog.ComponentAMQP).
		WithOperation(applog.OpConsume)
	fields[applog.FieldQueue] = c.queueName

	msg, err := TrainingMessageFromJSON(delivery.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode training message", fields.WithError(err).ToSlice()...)
		_ = delivery.Nack(false, false)
		return
	}
	fields[applog.FieldMessageID] = msg.MessageID
	fields[applog.FieldUsername] = msg.Username

	err = handler(ctx, msg)
	switch classify(err) {
	case outcomeAck:
		_ = delivery.Ack(false)
	case outcomeReject:
		slog.WarnContext(ctx, "Rejected training message", fields.WithError(err).ToSlice()...)
		_ = delivery.Nack(false, false)
	case outcomeRequeue:
		slog.ErrorContext(ctx, "Failed to handle training message", fields.WithError(err).ToSlice()...)
		_ = delivery.Nack(false, true)
	}
}

func classify(err error) outcome {
	switch {
	case err == nil:
		return outcomeAck
	case errors.Is(err, ErrRejected):
		return outcomeReject
	default:
		return outcomeRequeue
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
