// Package mq 基于 Watermill 提供统一的消息发布/订阅客户端.
// 支持 NATS（可选 JetStream）与 Redis Pub/Sub，通过工厂注册.
//
// 使用示例：
//
//	client, err := mq.New(ctx, &cfg.MQ)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	msg := message.NewMessage(watermill.NewUUID(), payload)
//	err = client.Publish(ctx, "ws.worksheet.created", msg)
package mq

import (
	"context"
	"errors"
	"fmt"
	"slices"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/worksheethub/pkg/configs"
	nlog "github.com/yeisme/worksheethub/pkg/log"
)

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.MQType]Factory{}

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// GetRegisteredMQTypes 返回已注册的 MQ 类型，按名称排序.
func GetRegisteredMQTypes() []configs.MQType {
	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	slices.Sort(types)

	return types
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	kind       configs.MQType
	closeFunc  func()
}

// NewClient 用现成的 Publisher/Subscriber 构造客户端，测试中可传入 gochannel.
func NewClient(pub message.Publisher, sub message.Subscriber) *Client {
	return &Client{publisher: pub, subscriber: sub}
}

// Type 返回 MQ 类型.
func (c *Client) Type() configs.MQType {
	return c.kind
}

// Publish 便捷发布.
func (c *Client) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return errors.New("mq publisher not initialized")
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 便捷订阅.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, errors.New("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// HealthCheck 检查客户端是否可用.
func (c *Client) HealthCheck(_ context.Context) error {
	if c == nil || c.publisher == nil {
		return errors.New("mq not initialized")
	}

	return nil
}

// Close 关闭资源.
func (c *Client) Close() error {
	var errs []error

	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}

	if c.subscriber != nil {
		errs = append(errs, c.subscriber.Close())
	}

	if c.closeFunc != nil {
		c.closeFunc()
	}

	return errors.Join(errs...)
}

// New 按配置创建消息队列客户端.
func New(ctx context.Context, cfg *configs.MQConfig) (*Client, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLoggerAdapter(*nlog.Logger())

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	client := &Client{publisher: pub, subscriber: sub, kind: cfg.Type}

	if m := configs.GetConfig().Metrics; m.Enabled && m.MQEndpoint != "" {
		registry, closeServer := metrics.CreateRegistryAndServeHTTP(m.MQEndpoint)
		builder := metrics.NewPrometheusMetricsBuilder(registry, configs.AppName, "mq")

		if client.publisher, err = builder.DecoratePublisher(pub); err != nil {
			closeServer()
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if client.subscriber, err = builder.DecorateSubscriber(sub); err != nil {
			closeServer()
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}

		client.closeFunc = closeServer

		nlog.Logger().Info().Str("endpoint", m.MQEndpoint).Msg("MQ metrics enabled")
	}

	nlog.Logger().Info().Str("type", string(cfg.Type)).Msg("MQ 客户端已初始化")

	return client, nil
}
