package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"smarttaskflow/pkg/metrics"
	"smarttaskflow/pkg/util"
)

type MessageHandler func(ctx context.Context, data json.RawMessage) error

type Consumer struct {
	channel    *amqp091.Channel
	queue      amqp091.Queue
	routingKey string
	handler    MessageHandler
	conn       *amqp091.Connection
	logger     *zap.Logger
}

// NewConsumer creates a consumer bound to a routing key pattern (e.g. "task.*").
func NewConsumer(url, queueName, routingKey string, logger *zap.Logger) (*Consumer, error) {
	conn, err := NewConnection(url, "smarttaskflow-consumer-"+queueName)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareExchange(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKey, ExchangeName, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	if err := DeclareDLQExchange(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}
	if _, err := DeclareDLQQueue(ch, queueName); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare DLQ queue: %w", err)
	}

	logger.Info("Consumer initialized",
		zap.String("routing_key", routingKey),
		zap.String("queue", queueName),
		zap.String("exchange", ExchangeName),
	)

	return &Consumer{
		conn:       conn,
		channel:    ch,
		queue:      q,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

// IsConnected checks if the consumer connection is still alive
func (c *Consumer) IsConnected() bool {
	return c.conn != nil && !c.conn.IsClosed()
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming blocks until ctx is cancelled or the delivery channel closes.
func (c *Consumer) StartConsuming(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.Consume(
		c.queue.Name,
		"",
		false, // 手动ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started consuming messages",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, msg)
		}
	}
}

// Disposition 失败消息的去向
type Disposition string

const (
	DispositionAck        Disposition = "ack"
	DispositionRequeue    Disposition = "requeue"
	DispositionDeadLetter Disposition = "dead_letter"
)

// Decide 可重试且首次投递 → 重新入队；其余失败进死信队列。
// 消费者正在退出时失败的消息一律重新入队，交给下一个实例
func Decide(ctx context.Context, err error, redelivered bool) (Disposition, string) {
	if err == nil {
		return DispositionAck, ""
	}
	if ctx.Err() != nil {
		return DispositionRequeue, "shutdown"
	}
	retryable, errType := util.IsRetryableError(err)
	if retryable && !redelivered {
		return DispositionRequeue, errType
	}
	return DispositionDeadLetter, errType
}

// handle 保证每条消息都会被 ack 或 nack
func (c *Consumer) handle(ctx context.Context, msg amqp091.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Handler panic recovered",
				zap.String("routing_key", msg.RoutingKey),
				zap.Any("panic", r),
			)
			c.deadLetter(ctx, msg, fmt.Errorf("panic: %v", r), "panic")
		}
	}()

	err := c.handler(ctx, msg.Body)
	disposition, errType := Decide(ctx, err, msg.Redelivered)

	switch disposition {
	case DispositionAck:
		if err := msg.Ack(false); err != nil {
			c.logger.Error("Failed to ack message",
				zap.String("routing_key", msg.RoutingKey),
				zap.Error(err),
			)
		}
	case DispositionRequeue:
		c.logger.Warn("Handler error, requeueing",
			zap.String("routing_key", msg.RoutingKey),
			zap.String("queue", c.queue.Name),
			zap.String("error_type", errType),
			zap.Error(err),
		)
		if err := msg.Nack(false, true); err != nil {
			c.logger.Error("Failed to nack message", zap.Error(err))
		}
	default:
		c.logger.Error("Handler error, dead-lettering",
			zap.String("routing_key", msg.RoutingKey),
			zap.String("queue", c.queue.Name),
			zap.String("error_type", errType),
			zap.Bool("redelivered", msg.Redelivered),
			zap.Error(err),
		)
		c.deadLetter(ctx, msg, err, errType)
		return
	}
	metrics.IncrementMessageDisposition(c.queue.Name, string(disposition), errType)
}

// deadLetter 转发到死信队列后 ack；转发失败则直接丢弃
func (c *Consumer) deadLetter(ctx context.Context, msg amqp091.Delivery, cause error, errType string) {
	// 退出信号不能打断死信转发
	if err := c.publishToDLQ(context.WithoutCancel(ctx), msg, cause, errType); err != nil {
		c.logger.Error("Failed to publish to DLQ, dropping message",
			zap.String("routing_key", msg.RoutingKey),
			zap.Error(err),
		)
		if err := msg.Nack(false, false); err != nil {
			c.logger.Error("Failed to nack message", zap.Error(err))
		}
		metrics.IncrementMessageDisposition(c.queue.Name, "drop", errType)
		return
	}
	if err := msg.Ack(false); err != nil {
		c.logger.Error("Failed to ack dead-lettered message", zap.Error(err))
	}
	metrics.IncrementMessageDisposition(c.queue.Name, string(DispositionDeadLetter), errType)
}
