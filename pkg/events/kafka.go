// Package events 广告变更事件的发布
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"adwall/pkg/logger"
)

// 事件类型
const (
	AdCreated     = "ad.created"
	AdUpdated     = "ad.updated"
	AdDeleted     = "ad.deleted"
	AdHeatChanged = "ad.heat_changed"
)

// AdEvent 广告变更事件，Score 为变更后的排序分数
type AdEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	AdID      string    `json:"ad_id"`
	Price     float64   `json:"price,omitempty"`
	Heat      int64     `json:"heat,omitempty"`
	Score     float64   `json:"score,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAdEvent 生成带唯一ID和时间戳的事件
func NewAdEvent(eventType, adID string) AdEvent {
	return AdEvent{
		EventID:   uuid.New().String(),
		Type:      eventType,
		AdID:      adID,
		Timestamp: time.Now(),
	}
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, event AdEvent) error
	Close() error
}

// messageWriter kafka.Writer 的最小接口
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 基于 kafka-go 的事件发布者
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *logger.Logger
}

// NewKafkaPublisher 创建 Kafka 发布者
func NewKafkaPublisher(brokers []string, topic string, logger *logger.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, topic: topic, logger: logger}
}

// Publish 以广告ID为消息键发送事件，同一广告的事件落在同一分区
func (p *KafkaPublisher) Publish(ctx context.Context, event AdEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("事件序列化失败", "type", event.Type, "error", err)
		return err
	}

	p.logger.Debug("发送广告事件", "topic", p.topic, "type", event.Type, "ad_id", event.AdID)
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AdID),
		Value: payload,
	})
	if err != nil {
		p.logger.Error("发送广告事件失败", "topic", p.topic, "type", event.Type, "error", err)
	}
	return err
}

// Close 关闭底层 writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop 未配置 Kafka 时使用的发布者
type Nop struct{}

// Publish 丢弃事件
func (Nop) Publish(context.Context, AdEvent) error { return nil }

// Close 无操作
func (Nop) Close() error { return nil }
