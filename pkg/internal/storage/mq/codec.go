package mq

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

func encodeEnvelope(msg *message.Message) ([]byte, error) {
	env := redisEnvelope{UUID: msg.UUID, Payload: msg.Payload}
	if len(msg.Metadata) > 0 {
		env.Metadata = msg.Metadata
	}

	b, err := sonic.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode message %s: %w", msg.UUID, err)
	}

	return b, nil
}

func decodeEnvelope(b []byte) (*message.Message, error) {
	var env redisEnvelope
	if err := sonic.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	if env.UUID == "" {
		env.UUID = watermill.NewUUID()
	}

	msg := message.NewMessage(env.UUID, env.Payload)
	for k, v := range env.Metadata {
		msg.Metadata.Set(k, v)
	}

	return msg, nil
}
