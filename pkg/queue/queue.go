// Package queue 定义目录服务对外发布的事件：主题、负载与统一的消息信封.
//
// 消息信封 JSON 结构
//
//	{
//	  "header": {
//	    "topic": "ws.worksheet.created",
//	    "trace_id": "optional-trace-id",
//	    "producer": "worksheethub",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { ... 取决于具体主题 ... }
//	}
//
// 发布示例
//
//	msg, _ := queue.NewWatermillMessage(queue.TopicWorksheetCreated, payload,
//	  queue.WithProducer("worksheethub"))
//	_ = client.Publish(ctx, queue.TopicWorksheetCreated, msg)
//
// 订阅示例
//
//	ch, _ := client.Subscribe(ctx, queue.TopicWorksheetCreated)
//	for m := range ch {
//	    env, _ := queue.ParseWatermillMessage[queue.WorksheetCreatedPayload](m)
//	    m.Ack()
//	}
//
// occurred_at 为 UTC RFC3339；消费者应忽略未知字段.
package queue

import (
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

const (
	PayloadVersionV1 string = "v1"
)

// EventHeader 所有事件的通用头部.
type EventHeader struct {
	Topic      string    `json:"topic"`
	TraceID    string    `json:"trace_id,omitempty"`
	Producer   string    `json:"producer,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    string    `json:"version,omitempty"`
}

// Message 统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// NewEventHeader 便捷创建事件头.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// Encode 将消息封装为 JSON 字节切片.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 字节解码为消息.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage 构造一个 watermill 消息，设置 ID 与元数据.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)

	data, err := Encode(Message[T]{Header: header, Payload: payload})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)
	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	if header.Version != "" {
		msg.Metadata.Set("version", header.Version)
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
