package mq

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTripKeepsMetadata(t *testing.T) {
	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"id":1}`))
	msg.Metadata.Set("topic", "ws.worksheet.created")

	b, err := encodeEnvelope(msg)
	require.NoError(t, err)

	got, err := decodeEnvelope(b)
	require.NoError(t, err)

	assert.Equal(t, msg.UUID, got.UUID)
	assert.Equal(t, "ws.worksheet.created", got.Metadata.Get("topic"))
	assert.JSONEq(t, `{"id":1}`, string(got.Payload))
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := decodeEnvelope([]byte("not json"))
	assert.Error(t, err)
}

func TestClientOverGoChannel(t *testing.T) {
	logger := NewLoggerAdapter(zerolog.Nop())
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 4}, logger)
	client := NewClient(ch, ch)

	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	in, err := client.Subscribe(ctx, "ws.asset.stored")
	require.NoError(t, err)

	require.NoError(t, client.Publish(ctx, "ws.asset.stored", message.NewMessage(watermill.NewUUID(), []byte("x"))))

	select {
	case m := <-in:
		assert.Equal(t, "x", string(m.Payload))
		m.Ack()
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}

	assert.NoError(t, client.HealthCheck(ctx))
}
