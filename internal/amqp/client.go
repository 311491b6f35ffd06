// Package amqp carries the async messaging between the API server and the
// export worker over RabbitMQ.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Client publishes and consumes messages on a direct exchange with two
// queues: one for spreadsheet export, one for budget alerts.
type Client struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	syncQueue  string
	alertQueue string
}

func NewClient(url, exchange, syncQueue, alertQueue string) (*Client, error) {
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
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		syncQueue:  syncQueue,
		alertQueue: alertQueue,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}
	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchange,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.syncQueue, c.alertQueue} {
		if _, err := c.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		// Routing key matches the queue name on a direct exchange.
		if err := c.channel.QueueBind(queue, queue, c.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// PublishTransactionSync queues a transaction for spreadsheet export.
func (c *Client) PublishTransactionSync(ctx context.Context, id string) error {
	body, err := NewTransactionSyncMessage(id).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal sync message: %w", err)
	}
	if err := c.publish(ctx, c.syncQueue, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published transaction sync message",
		"transaction_id", id, "exchange", c.exchange, "queue", c.syncQueue)
	return nil
}

// PublishBudgetAlert queues a budget-tier alert for the notification feed.
func (c *Client) PublishBudgetAlert(ctx context.Context, msg *BudgetAlertMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal alert message: %w", err)
	}
	if err := c.publish(ctx, c.alertQueue, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published budget alert message",
		"owner_id", msg.OwnerID, "category", msg.Category, "tier", msg.Tier)
	return nil
}

// ConsumeMessages processes both queues until the context is cancelled.
// Handler errors requeue the delivery; unmarshal errors drop it.
func (c *Client) ConsumeMessages(
	ctx context.Context,
	onSync func(context.Context, *TransactionSyncMessage) error,
	onAlert func(context.Context, *BudgetAlertMessage) error,
) error {
	syncMsgs, err := c.channel.Consume(c.syncQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming %s: %w", c.syncQueue, err)
	}
	alertMsgs, err := c.channel.Consume(c.alertQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming %s: %w", c.alertQueue, err)
	}

	slog.InfoContext(ctx, "Started consuming messages",
		"sync_queue", c.syncQueue, "alert_queue", c.alertQueue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()

		case delivery, ok := <-syncMsgs:
			if !ok {
				return fmt.Errorf("sync message channel closed")
			}
			msg, err := TransactionSyncMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal sync message", "error", err)
				delivery.Nack(false, false)
				continue
			}
			if err := onSync(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle sync message",
					"error", err, "transaction_id", msg.ID)
				delivery.Nack(false, true)
				continue
			}
			delivery.Ack(false)

		case delivery, ok := <-alertMsgs:
			if !ok {
				return fmt.Errorf("alert message channel closed")
			}
			msg, err := BudgetAlertMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal alert message", "error", err)
				delivery.Nack(false, false)
				continue
			}
			if err := onAlert(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle alert message",
					"error", err, "owner_id", msg.OwnerID, "category", msg.Category)
				delivery.Nack(false, true)
				continue
			}
			delivery.Ack(false)
		}
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
