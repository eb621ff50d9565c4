package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEncodesValues(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "gzip")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return at }
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, "alerts", []byte("k"), map[string]string{"level": "HIGH"}))
	require.NoError(t, p.PublishMessage(ctx, "logs", "plain"))
	require.NoError(t, p.PublishBatch(ctx, "alerts", []Message{{Value: []byte("raw")}, {Value: 42}}))

	require.Len(t, w.msgs, 4)
	assert.Equal(t, "alerts", w.msgs[0].Topic)
	assert.Equal(t, []byte("k"), w.msgs[0].Key)
	assert.JSONEq(t, `{"level":"HIGH"}`, string(w.msgs[0].Value))
	assert.Equal(t, at, w.msgs[0].Time)
	require.Len(t, w.msgs[0].Headers, 1)
	assert.Equal(t, "content-type", w.msgs[0].Headers[0].Key)
	assert.Empty(t, w.msgs[1].Headers)
	assert.Equal(t, "plain", string(w.msgs[1].Value))
	assert.Nil(t, w.msgs[1].Key)
	assert.Equal(t, "raw", string(w.msgs[2].Value))
	assert.Equal(t, "42", string(w.msgs[3].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newProducer(w, "snappy")
	ctx := context.Background()

	failed := p.metrics.messages.WithLabelValues("alerts-err", "snappy", "error")
	before := testutil.ToFloat64(failed)
	err := p.Publish(ctx, "alerts-err", nil, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Equal(t, before+1, testutil.ToFloat64(failed))

	assert.Error(t, p.Publish(ctx, "", nil, "x"))
	assert.Error(t, p.Publish(ctx, "t", nil, make(chan int)))
	assert.NoError(t, p.PublishBatch(ctx, "t", nil))
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)

	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("lz4"), WithAutoCreateTopics(true))
	require.NoError(t, err)
	assert.Equal(t, "lz4", p.comp)
	require.NoError(t, p.Close())
}

func TestCompressionCodec(t *testing.T) {
	assert.Equal(t, kafka.Snappy, compressionCodec("snappy"))
	assert.Equal(t, kafka.Zstd, compressionCodec("zstd"))
	assert.Equal(t, kafka.Compression(0), compressionCodec("none"))
}

func TestProducerOptions(t *testing.T) {
	cfg := DefaultProducerConfig()
	for _, o := range []ProducerOption{
		WithBrokers([]string{"b1:9092"}),
		WithCompression("zstd"),
		WithMaxAttempts(0),
		WithHashByKey(true),
		WithAutoCreateTopics(true),
	} {
		o(&cfg)
	}
	assert.Equal(t, []string{"b1:9092"}, cfg.Brokers)
	assert.Equal(t, "zstd", cfg.Compression)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.True(t, cfg.HashByKey)
	assert.True(t, cfg.AutoCreateTopics)
	assert.Equal(t, -1, cfg.RequiredAcks)
}
