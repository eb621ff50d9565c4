package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON payloads. Values that are already []byte or string are sent
// as is; everything else is marshalled and tagged with a content-type header.
type Producer struct {
	writer  messageWriter
	comp    string
	now     func() time.Time
	metrics *producerMetrics
}

// Message is one record of a batch.
type Message struct {
	Key   []byte
	Value interface{}
}

// NewProducer creates a Kafka producer.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := DefaultProducerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}

	var bal kafka.Balancer = &kafka.LeastBytes{}
	if cfg.HashByKey {
		// same key, same partition: readings of one level stay ordered
		bal = &kafka.Hash{}
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               bal,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compressionCodec(cfg.Compression),
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		ReadTimeout:            cfg.ReadTimeout,
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: cfg.AutoCreateTopics,
	}
	return newProducer(w, cfg.Compression), nil
}

func newProducer(w messageWriter, comp string) *Producer {
	return &Producer{
		writer:  w,
		comp:    comp,
		now:     time.Now,
		metrics: sharedProducerMetrics(prometheus.DefaultRegisterer),
	}
}

// Publish sends one keyed message.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: value}})
}

// PublishMessage sends an unkeyed message. It satisfies logger.Publisher.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Publish(ctx, topic, nil, payload)
}

// PublishBatch writes messages to topic in a single call. An encoding failure rejects
// the whole batch before anything is written.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	if topic == "" {
		return errors.New("kafka: topic is required")
	}

	at := p.now()
	out := make([]kafka.Message, len(messages))
	var size int
	for i, m := range messages {
		v, headers, err := encode(m.Value)
		if err != nil {
			return fmt.Errorf("kafka: message %d for %s: %w", i, topic, err)
		}
		out[i] = kafka.Message{Topic: topic, Key: m.Key, Value: v, Headers: headers, Time: at}
		size += len(v)
	}

	start := time.Now()
	err := p.writer.WriteMessages(ctx, out...)
	p.metrics.observe(topic, p.comp, len(out), size, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("kafka: write %d message(s) to %s: %w", len(out), topic, err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

var jsonHeader = []kafka.Header{{Key: "content-type", Value: []byte("application/json")}}

func encode(value interface{}) ([]byte, []kafka.Header, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil, nil
	case string:
		return []byte(v), nil, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal: %w", err)
	}
	return b, jsonHeader, nil
}

var codecs = map[string]kafka.Compression{
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

// compressionCodec maps a codec name to kafka-go's value. Unknown names, "none"
// included, yield the zero value: no compression.
func compressionCodec(name string) kafka.Compression {
	return codecs[name]
}
