package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestPublishEncodesJSON(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaProducer{writer: w}

	err := p.Publish(context.Background(), "order.created", "ord-1", map[string]any{"total": 2000})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order.created", w.msgs[0].Topic)
	assert.Equal(t, "ord-1", string(w.msgs[0].Key))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.EqualValues(t, 2000, body["total"])
}

func TestPublishPropagatesWriteError(t *testing.T) {
	p := &KafkaProducer{writer: &recordingWriter{err: errors.New("broker down")}}
	assert.Error(t, p.Publish(context.Background(), "t", "k", struct{}{}))
}

func TestNewPublisherWithoutBrokers(t *testing.T) {
	p := NewPublisher(KafkaConfig{})
	_, ok := p.(NopPublisher)
	assert.True(t, ok)
	assert.NoError(t, p.Publish(context.Background(), "t", "k", nil))
}
