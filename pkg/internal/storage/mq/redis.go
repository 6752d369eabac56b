package mq

import (
	"context"
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/worksheethub/pkg/configs"
)

const defaultChannelBufferSize = 100

// 消息元数据随负载一起编码，Redis Pub/Sub 只能传一段字节.
type redisEnvelope struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

// RedisPublisher Redis Pub/Sub Publisher.
type RedisPublisher struct {
	client *redis.Client
}

// RedisSubscriber Redis Pub/Sub Subscriber.
type RedisSubscriber struct {
	client  *redis.Client
	logger  watermill.LoggerAdapter
	mu      sync.Mutex
	subs    []*redis.PubSub
	closed  bool
	closeCh chan struct{}
}

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

func redisFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}

	pub := &RedisPublisher{client: rdb}
	sub := &RedisSubscriber{client: rdb, logger: logger, closeCh: make(chan struct{})}

	return pub, sub, nil
}

// Publish 实现 Publisher 接口.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		data, err := encodeEnvelope(msg)
		if err != nil {
			return err
		}

		if err := p.client.Publish(context.Background(), topic, data).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Close 发布端与订阅端共用连接，由订阅端关闭.
func (p *RedisPublisher) Close() error {
	return nil
}

// Subscribe 实现 Subscriber 接口.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("subscriber closed")
	}

	ps := s.client.Subscribe(ctx, topic)
	s.subs = append(s.subs, ps)

	ch := make(chan *message.Message, defaultChannelBufferSize)

	go func() {
		defer close(ch)

		in := ps.Channel()

		for {
			select {
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}

				msg, err := decodeEnvelope([]byte(raw.Payload))
				if err != nil {
					s.logger.Error("drop malformed redis message", err, watermill.LogFields{"topic": topic})
					continue
				}

				select {
				case ch <- msg:
				case <-s.closeCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// Close 实现 Subscriber 接口.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.closeCh)

	for _, ps := range s.subs {
		_ = ps.Close()
	}

	return s.client.Close()
}
