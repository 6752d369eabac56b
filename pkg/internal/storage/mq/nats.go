package mq

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/yeisme/worksheethub/pkg/configs"
)

const defaultDrainTimeout = 10 * time.Second

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

func buildNatsOptions(cfg *configs.MQConfig) []nc.Option {
	c := cfg.Common

	opts := []nc.Option{
		nc.Name(c.ClientID),
		nc.MaxReconnects(c.MaxReconnects),
		nc.ReconnectWait(time.Duration(c.ReconnectWait) * time.Second),
		nc.PingInterval(time.Duration(c.PingInterval) * time.Second),
		nc.MaxPingsOutstanding(c.MaxPingsOut),
		nc.DrainTimeout(defaultDrainTimeout),
		nc.RetryOnFailedConnect(true),
	}

	if c.User != "" {
		opts = append(opts, nc.UserInfo(c.User, c.Password))
	}

	return opts
}

func buildJetStreamConfig(cfg *configs.MQNATSConfig) nats.JetStreamConfig {
	if !cfg.JetStreamEnabled {
		return nats.JetStreamConfig{Disabled: true}
	}

	return nats.JetStreamConfig{
		AutoProvision: cfg.JetStreamAutoProvision,
		TrackMsgId:    cfg.JetStreamTrackMsgID,
		AckAsync:      cfg.JetStreamAckAsync,
		DurablePrefix: cfg.JetStreamDurablePrefix,
	}
}

// natsFactory 创建 NATS Publisher & Subscriber.
func natsFactory(
	_ context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	opts := buildNatsOptions(cfg)
	jsCfg := buildJetStreamConfig(&cfg.NATS)
	marshaler := &nats.JSONMarshaler{}

	logger.Info("nats connecting", watermill.LogFields{
		"url":       cfg.Common.URL,
		"jetstream": cfg.NATS.JetStreamEnabled,
		"stream":    cfg.NATS.StreamName,
	})

	pub, err := nats.NewPublisher(nats.PublisherConfig{
		URL:         cfg.Common.URL,
		NatsOptions: opts,
		JetStream:   jsCfg,
		Marshaler:   marshaler,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	sub, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:         cfg.Common.URL,
		NatsOptions: opts,
		JetStream:   jsCfg,
		Unmarshaler: marshaler,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, err
	}

	return pub, sub, nil
}
