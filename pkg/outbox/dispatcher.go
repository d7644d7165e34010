package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Store 由 Repository 实现
type Store interface {
	GetPendingEvents(ctx context.Context, limit int) ([]*Event, error)
	MarkAsSent(ctx context.Context, eventID int64) error
	MarkAsFailed(ctx context.Context, eventID int64, maxRetries int) error
	ReplayFailed(ctx context.Context) (int64, error)
}

// Sender 由 mq.Publisher 实现
type Sender interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	IsConnected() bool
	Close()
}

// Dialer 建立一条新的 MQ 连接
type Dialer func() (Sender, error)

// Dispatcher 负责从 outbox 中读取事件并发布到 MQ
type Dispatcher struct {
	store             Store
	logger            *zap.Logger
	maxRetries        int
	interval          time.Duration
	reconnectInterval time.Duration
	batchSize         int
}

func NewDispatcher(store Store, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:             store,
		logger:            logger,
		maxRetries:        5,
		interval:          1 * time.Second,
		reconnectInterval: 5 * time.Second,
		batchSize:         100,
	}
}

// Run 阻塞直到 ctx 取消。每次连上 MQ 先重放 failed 事件再投递，连接断开后重新拨号
func (d *Dispatcher) Run(ctx context.Context, dial Dialer) {
	d.logger.Info("Starting Outbox Dispatcher",
		zap.Int("max_retries", d.maxRetries),
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize),
	)

	for {
		sender, err := dial()
		if err != nil {
			d.logger.Warn("MQ unavailable, task events stay in outbox", zap.Error(err))
		} else {
			d.replayFailed(ctx)
			d.deliver(ctx, sender)
			sender.Close()
			if ctx.Err() == nil {
				d.logger.Warn("MQ connection lost, reconnecting")
			}
		}

		select {
		case <-ctx.Done():
			d.logger.Info("Outbox Dispatcher stopped")
			return
		case <-time.After(d.reconnectInterval):
		}
	}
}

func (d *Dispatcher) replayFailed(ctx context.Context) {
	n, err := d.store.ReplayFailed(ctx)
	if err != nil {
		d.logger.Error("Failed to replay outbox events", zap.Error(err))
		return
	}
	if n > 0 {
		d.logger.Info("Replaying failed outbox events", zap.Int64("count", n))
	}
}

// deliver 按间隔投递，直到 ctx 取消或连接断开
func (d *Dispatcher) deliver(ctx context.Context, sender Sender) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !sender.IsConnected() {
				return
			}
			d.processPendingEvents(ctx, sender)
		}
	}
}

// processPendingEvents 处理一批到期事件，返回成功发送的条数
func (d *Dispatcher) processPendingEvents(ctx context.Context, sender Sender) int {
	events, err := d.store.GetPendingEvents(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("Failed to get pending events", zap.Error(err))
		return 0
	}
	if len(events) == 0 {
		return 0
	}

	d.logger.Debug("Processing pending events", zap.Int("count", len(events)))

	sent := 0
	for _, event := range events {
		// payload 已是 JSON，原样发送
		if err := sender.Publish(ctx, event.RoutingKey, event.Payload); err != nil {
			// 连接断了不算事件本身失败，不消耗重试次数
			if !sender.IsConnected() {
				d.logger.Warn("MQ connection closed during publish",
					zap.Int64("event_id", event.ID),
					zap.Error(err),
				)
				return sent
			}
			d.logger.Error("Failed to publish event",
				zap.Int64("event_id", event.ID),
				zap.String("routing_key", event.RoutingKey),
				zap.Error(err),
			)
			if err := d.store.MarkAsFailed(ctx, event.ID, d.maxRetries); err != nil {
				d.logger.Error("Failed to mark event as failed",
					zap.Int64("event_id", event.ID),
					zap.Error(err),
				)
			}
			continue
		}

		if err := d.store.MarkAsSent(ctx, event.ID); err != nil {
			// 下一轮会重发，消费端按 event_id 去重
			d.logger.Error("Failed to mark event as sent",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	return sent
}
