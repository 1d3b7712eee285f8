// Package messaging 实现基于 Outbox 模式的事件发布。
// Outbox 行通过 context 中的事务句柄写入，与订单写入同事务提交，
// 后台转发器随后将其投递到 Kafka。
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/ordermanagement/pkg/mq"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
	"gorm.io/gorm"
)

const (
	statusPending = "pending"
	statusSent    = "sent"
)

// OutboxMessage 待投递事件
type OutboxMessage struct {
	ID        string    `gorm:"type:varchar(36);primary_key"`
	EventType string    `gorm:"type:varchar(100);index;not null"`
	Payload   string    `gorm:"type:text;not null"`
	Status    string    `gorm:"type:varchar(20);index;default:'pending'"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName 指定表名
func (OutboxMessage) TableName() string {
	return "order_outbox_messages"
}

// OutboxEventPublisher 实现 domain.EventPublisher
type OutboxEventPublisher struct {
	db *gorm.DB
}

var _ domain.EventPublisher = (*OutboxEventPublisher)(nil)

// NewOutboxEventPublisher 创建 Outbox 事件发布者
func NewOutboxEventPublisher(db *gorm.DB) *OutboxEventPublisher {
	return &OutboxEventPublisher{db: db}
}

func (p *OutboxEventPublisher) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return p.db
}

// Publish 将事件写入 Outbox 表。
// 若 context 携带事务，则随事务一同提交或回滚。
func (p *OutboxEventPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	message := OutboxMessage{
		ID:        uuid.New().String(),
		EventType: eventType,
		Payload:   string(data),
		Status:    statusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := p.getDB(ctx).WithContext(ctx).Create(&message).Error; err != nil {
		return fmt.Errorf("failed to store outbox message: %w", err)
	}
	return nil
}

// OutboxRelay 后台轮询 Outbox 并投递到 Kafka
type OutboxRelay struct {
	db        *gorm.DB
	producer  *mq.KafkaProducer
	topic     string
	batchSize int
	interval  time.Duration
}

// NewOutboxRelay 创建 Outbox 转发器
func NewOutboxRelay(db *gorm.DB, producer *mq.KafkaProducer, topic string) *OutboxRelay {
	return &OutboxRelay{
		db:        db,
		producer:  producer,
		topic:     topic,
		batchSize: 100,
		interval:  time.Second,
	}
}

// Run 循环投递直到 context 取消，已投递的历史消息定期清理
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.drainOnce(ctx); err != nil {
				logging.Error(ctx, "outbox relay pass failed", "error", err)
			}
		case <-cleanup.C:
			if err := r.Cleanup(ctx, time.Now().Add(-24*time.Hour)); err != nil {
				logging.Error(ctx, "outbox cleanup failed", "error", err)
			}
		}
	}
}

// drainOnce 处理一批待投递消息
func (r *OutboxRelay) drainOnce(ctx context.Context) error {
	var messages []OutboxMessage
	if err := r.db.WithContext(ctx).
		Where("status = ?", statusPending).
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error; err != nil {
		return fmt.Errorf("failed to load pending outbox messages: %w", err)
	}

	for _, message := range messages {
		if err := r.producer.SendRaw(ctx, r.topic, message.EventType, []byte(message.Payload)); err != nil {
			// 投递失败的消息保留 pending，下一轮重试
			return err
		}
		if err := r.db.WithContext(ctx).Model(&OutboxMessage{}).
			Where("id = ?", message.ID).
			Update("status", statusSent).Error; err != nil {
			return fmt.Errorf("failed to mark outbox message sent: %w", err)
		}
	}
	return nil
}

// Cleanup 清理已投递的历史消息
func (r *OutboxRelay) Cleanup(ctx context.Context, before time.Time) error {
	return r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", statusSent, before).
		Delete(&OutboxMessage{}).Error
}
