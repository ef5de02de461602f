package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/lead-call-relay/internal/config"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishCallEvent(t *testing.T) {
	w := &recordingWriter{}
	p := &EventPublisher{writer: w}

	callID := "abc123"
	evt := CallEvent{
		EventID:    uuid.New(),
		Source:     "webhook",
		Outcome:    "success",
		To:         "+14199243016",
		CallID:     &callID,
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, p.PublishCallEvent(context.Background(), evt))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, evt.EventID[:], w.msgs[0].Key)

	var decoded CallEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "success", decoded.Outcome)
	require.NotNil(t, decoded.CallID)
	assert.Equal(t, "abc123", *decoded.CallID)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishCallEventWriteError(t *testing.T) {
	p := &EventPublisher{writer: &recordingWriter{err: errors.New("broker down")}}
	err := p.PublishCallEvent(context.Background(), CallEvent{EventID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestNewKafkaRequiresBrokers(t *testing.T) {
	_, err := NewKafka(config.KafkaConfig{})
	assert.Error(t, err)

	k, err := NewKafka(config.KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	w := k.NewWriter("call-events")
	assert.Equal(t, "call-events", w.Topic)
}
