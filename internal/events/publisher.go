// 包 events：上报事件发布，供实时地图推送与离线分析等下游消费
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"density-api/internal/logger"
	"density-api/internal/metrics"

	"github.com/segmentio/kafka-go"
)

// ReportEvent：一条已入库上报的对外事件
type ReportEvent struct {
	ID        string    `json:"id"`
	PlaceID   string    `json:"place_id"`
	Level     string    `json:"level"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

type Publisher interface {
	PublishReport(ctx context.Context, ev ReportEvent) error
	Close() error
}

// Noop：未配置消息总线时使用
type Noop struct{}

func (Noop) PublishReport(context.Context, ReportEvent) error { return nil }
func (Noop) Close() error                                      { return nil }

// 文档注释：Kafka 发布器
// 背景：按地点 ID 作为消息键，保证同一地点的事件落在同一分区内有序。
// 约束：同步写入、RequireOne；写入失败返回错误，由调用方记录日志，不影响上报本身。
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafka(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		WriteTimeout: 3 * time.Second,
	}}
}

func (k *KafkaPublisher) PublishReport(ctx context.Context, ev ReportEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode report event: %w", err)
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{Key: []byte(ev.PlaceID), Value: b, Time: ev.CreatedAt}); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues("fail").Inc()
		return fmt.Errorf("publish report event: %w", err)
	}
	metrics.EventsPublishedTotal.WithLabelValues("ok").Inc()
	return nil
}

func (k *KafkaPublisher) Close() error { return k.w.Close() }

// 文档注释：从环境变量构建发布器
// 背景：KAFKA_BROKERS 为逗号分隔地址；未配置时返回 Noop。KAFKA_REPORT_TOPIC 默认 density.reports。
func FromEnv() Publisher {
	raw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if raw == "" {
		logger.L().Info("events_disabled")
		return Noop{}
	}
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	topic := os.Getenv("KAFKA_REPORT_TOPIC")
	if topic == "" {
		topic = "density.reports"
	}
	logger.L().Info("events_kafka", "brokers", brokers, "topic", topic)
	return NewKafka(brokers, topic)
}
