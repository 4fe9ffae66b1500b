package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"fridgemap/internal/events"
	"fridgemap/internal/models"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	event := events.Event{
		Type:       events.FridgeCreated,
		FridgeID:   "fridge-1",
		OccurredAt: at,
		Fridge:     &models.Fridge{ID: "fridge-1", Location: &models.Location{Lat: 29.95, Lon: -90.07}},
	}

	t.Run("writes keyed message", func(t *testing.T) {
		writer := &fakeWriter{}
		publisher := events.NewKafkaPublisherWithWriter(writer, zerolog.Nop())

		require.NoError(t, publisher.Publish(t.Context(), event))

		require.Len(t, writer.messages, 1)
		msg := writer.messages[0]
		assert.Equal(t, []byte("fridge-1"), msg.Key)
		assert.Equal(t, at, msg.Time)
		require.Len(t, msg.Headers, 1)
		assert.Equal(t, "fridge.created", string(msg.Headers[0].Value))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, "fridge.created", decoded["type"])
		assert.Equal(t, "fridge-1", decoded["fridge_id"])
	})

	t.Run("writer error", func(t *testing.T) {
		writer := &fakeWriter{err: assert.AnError}
		publisher := events.NewKafkaPublisherWithWriter(writer, zerolog.Nop())

		err := publisher.Publish(t.Context(), event)

		require.ErrorIs(t, err, assert.AnError)
		assert.ErrorContains(t, err, "failed to write fridge.created event")
	})

	t.Run("close", func(t *testing.T) {
		writer := &fakeWriter{}
		publisher := events.NewKafkaPublisherWithWriter(writer, zerolog.Nop())

		require.NoError(t, publisher.Close())
		assert.True(t, writer.closed)
	})
}

func TestNopPublisher(t *testing.T) {
	var p events.Publisher = events.NopPublisher{}
	assert.NoError(t, p.Publish(t.Context(), events.Event{Type: events.FridgeUpdated}))
	assert.NoError(t, p.Close())
}
