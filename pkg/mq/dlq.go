package mq

import (
	"context"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	DLQExchangeName = ExchangeName + ".dlq"
)

// DeclareDLQExchange declares the dead letter exchange.
func DeclareDLQExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		DLQExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
}

// DLQQueueName 死信队列名：<queue>.dlq
func DLQQueueName(queueName string) string {
	return queueName + ".dlq"
}

// DeclareDLQQueue declares the dead letter queue for a consumer queue and binds it to every routing key.
func DeclareDLQQueue(ch *amqp091.Channel, queueName string) (amqp091.Queue, error) {
	q, err := ch.QueueDeclare(DLQQueueName(queueName), true, false, false, false, nil)
	if err != nil {
		return amqp091.Queue{}, err
	}
	if err := ch.QueueBind(q.Name, "#", DLQExchangeName, false, nil); err != nil {
		return amqp091.Queue{}, err
	}
	return q, nil
}

// publishToDLQ 原样转发消息体，错误信息放在 header 里
func (c *Consumer) publishToDLQ(ctx context.Context, msg amqp091.Delivery, cause error, errType string) error {
	headers := amqp091.Table{
		"x-original-error": cause.Error(),
		"x-error-type":     errType,
		"x-failed-queue":   c.queue.Name,
	}

	return c.channel.PublishWithContext(
		ctx,
		DLQExchangeName,
		msg.RoutingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  msg.ContentType,
			Body:         msg.Body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Headers:      headers,
		},
	)
}
