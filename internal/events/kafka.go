package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const eventTypeHeader = "event-type"

// MessageWriter はKafkaへのメッセージ書き込みインターフェース。
// *kafka.Writer が満たす。
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher は予約イベントをJSONとしてKafkaトピックに送信する。
// メッセージキーは予約IDで、同一予約のイベントは同じパーティションに入る。
type KafkaPublisher struct {
	writer MessageWriter
}

// DeliveryFailureFunc は非同期送信に失敗したイベントごとに呼ばれる。
type DeliveryFailureFunc func(eventType, bookingID string, err error)

// NewKafkaPublisher はブローカーとトピックを指定してKafkaPublisherを生成する。
// 送信は非同期で、Publish はブローカーの応答を待たずに戻る。
// 配送に失敗したメッセージは onFailure に渡される。
func NewKafkaPublisher(brokers []string, topic string, onFailure DeliveryFailureFunc) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion:   completion(onFailure),
	})
}

// completion は Writer の Completion コールバックを組み立てる。
func completion(onFailure DeliveryFailureFunc) func([]kafka.Message, error) {
	return func(msgs []kafka.Message, err error) {
		if err == nil || onFailure == nil {
			return
		}
		for _, msg := range msgs {
			onFailure(eventType(msg), string(msg.Key), err)
		}
	}
}

// eventType はヘッダからイベント種別を取り出す。
func eventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == eventTypeHeader {
			return string(h.Value)
		}
	}
	return "unknown"
}

// NewKafkaPublisherWithWriter は任意のMessageWriterを使うKafkaPublisherを生成する。
func NewKafkaPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish はイベントを1件送信する。
func (p *KafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.BookingID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s event: %w", event.Type, err)
	}
	return nil
}

// Close は内部のWriterを閉じる。非同期送信中のメッセージは閉じる前に送り切る。
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// compile-time interface check
var _ Publisher = (*KafkaPublisher)(nil)
