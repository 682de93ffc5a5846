package sink

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"

	"github.com/rickgao/feeder/internal/model"
)

// producer abstracts the kgo client methods used by Kafka for testing.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaConfig holds Kafka sink configuration.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	SASLMechanism string // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512 or empty
	Username      string
	Password      string
	TLS           bool
}

// Envelope is the JSON value of one Kafka record: a whole batch.
type Envelope struct {
	BatchID string          `json:"batch_id"`
	Source  string          `json:"source"`
	Points  []EnvelopePoint `json:"points"`
}

// EnvelopePoint is one point inside an Envelope.
type EnvelopePoint struct {
	Measurement string            `json:"measurement"`
	Tags        map[string]string `json:"tags,omitempty"`
	Fields      map[string]any    `json:"fields"`
	Time        time.Time         `json:"time"`
	TimeNs      int64             `json:"time_ns"`
}

// Kafka publishes each batch as a single record keyed by source.
type Kafka struct {
	client producer
	topic  string
	logger *slog.Logger

	closed atomic.Bool
}

// NewKafka creates a Kafka sink with a franz-go client.
func NewKafka(cfg KafkaConfig, logger *slog.Logger) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	return newKafka(client, cfg.Topic, logger), nil
}

func newKafka(client producer, topic string, logger *slog.Logger) *Kafka {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		client: client,
		topic:  topic,
		logger: logger,
	}
}

// clientOptions returns the kgo options for cfg.
func clientOptions(cfg KafkaConfig) ([]kgo.Opt, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}

	if cfg.SASLMechanism != "" {
		var mechanism sasl.Mechanism
		switch cfg.SASLMechanism {
		case "PLAIN":
			mechanism = plain.Auth{User: cfg.Username, Pass: cfg.Password}.AsMechanism()
		case "SCRAM-SHA-256":
			mechanism = scram.Auth{User: cfg.Username, Pass: cfg.Password}.AsSha256Mechanism()
		case "SCRAM-SHA-512":
			mechanism = scram.Auth{User: cfg.Username, Pass: cfg.Password}.AsSha512Mechanism()
		default:
			return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.SASLMechanism)
		}
		opts = append(opts, kgo.SASL(mechanism))
	}

	if cfg.TLS {
		opts = append(opts, kgo.DialTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}))
	}

	return opts, nil
}

// Write validates the batch and produces it as one record.
func (k *Kafka) Write(ctx context.Context, batch model.Batch, source string) error {
	if k.closed.Load() {
		return ErrSinkClosed
	}
	if len(batch) == 0 {
		return nil
	}
	if err := batch.Validate(); err != nil {
		return fmt.Errorf("validate batch: %w", err)
	}

	value, err := json.Marshal(newEnvelope(batch, source, uuid.New()))
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(source),
		Value: value,
	}

	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}

	k.logger.Debug("batch published",
		"source", source,
		"points", len(batch),
		"bytes", len(value),
	)
	return nil
}

// Close flushes nothing (writes are synchronous) and closes the client.
func (k *Kafka) Close() {
	if !k.closed.CompareAndSwap(false, true) {
		return
	}
	k.client.Close()
	k.logger.Info("kafka sink closed")
}

func newEnvelope(batch model.Batch, source string, id uuid.UUID) Envelope {
	env := Envelope{
		BatchID: id.String(),
		Source:  source,
		Points:  make([]EnvelopePoint, len(batch)),
	}
	for i, p := range batch {
		env.Points[i] = EnvelopePoint{
			Measurement: p.Measurement,
			Tags:        p.Tags,
			Fields:      p.Fields,
			Time:        p.Timestamp,
			TimeNs:      p.Timestamp.UnixNano(),
		}
	}
	return env
}
