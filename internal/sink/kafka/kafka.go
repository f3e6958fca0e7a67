// Package kafka implements the Kafka sink connector, grounded on
// segmentio/kafka-go's Writer (the same library named, unimplemented, in
// the pack's pxlvre-usdc-event-tracker kafka sink — this fills in the
// Write/Close shape that file leaves as TODOs) and on
// original_source's KafkaInsertDataFormatter for the row-to-message
// shape (topic/key/payload per row, reusing msgfmt's formatters).
package kafka

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/format"
	"github.com/taosdata/taosgen/internal/format/msgfmt"
)

// Config mirrors the Kafka target's connection and delivery settings.
type Config struct {
	Brokers      []string
	Topic        string
	RequiredAcks kafkago.RequiredAcks
	Async        bool
	WriteTimeout time.Duration
}

// Connector is one Kafka producer session.
type Connector struct {
	cfg    Config
	writer *kafkago.Writer
}

// New builds an unconnected Connector.
func New(cfg Config) *Connector {
	return &Connector{cfg: cfg}
}

// Connect builds the underlying kafka.Writer. kafka-go writers dial
// lazily on first write, so this only validates configuration and
// constructs the writer, matching how the other connectors treat
// Connect as "ready to accept Execute calls" rather than a blocking
// handshake.
func (c *Connector) Connect(ctx context.Context) error {
	if len(c.cfg.Brokers) == 0 {
		return errors.New("kafka: at least one broker is required")
	}
	writeTimeout := c.cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	c.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(c.cfg.Brokers...),
		Topic:        c.cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: c.cfg.RequiredAcks,
		Async:        c.cfg.Async,
		WriteTimeout: writeTimeout,
	}
	return nil
}

// Execute writes every TopicPayload in result as one Kafka message,
// keyed by the formatted topic string (usually the table name) so
// messages from the same table land on the same partition, matching the
// pipeline's own per-table ordering guarantee (§4.E). The message routes
// to the Writer's configured Topic: kafka-go requires a Writer be bound
// to exactly one topic OR have every message set its own, and this
// connector is configured per output topic the same way the MQTT
// connector is configured per broker.
func (c *Connector) Execute(ctx context.Context, result format.Result) error {
	if result.Kind != format.InsertPayload {
		return errors.Newf("kafka: unsupported result kind %v", result.Kind)
	}

	rows, ok := result.Payload.([]msgfmt.TopicPayload)
	if !ok {
		return errors.New("kafka: result payload is not []msgfmt.TopicPayload")
	}

	msgs := make([]kafkago.Message, len(rows))
	for i, row := range rows {
		msgs[i] = kafkago.Message{
			Key:   []byte(row.Topic),
			Value: row.Payload,
		}
	}

	if err := c.writer.WriteMessages(ctx, msgs...); err != nil {
		return errors.Wrap(err, "kafka: writing messages")
	}
	return nil
}

// IsValid reports whether the writer has been constructed and not yet
// closed.
func (c *Connector) IsValid() bool { return c.writer != nil }

// ResetState is a no-op: a kafka.Writer carries no per-execute state.
func (c *Connector) ResetState() {}

// Close flushes and closes the underlying writer.
func (c *Connector) Close() error {
	if c.writer == nil {
		return nil
	}
	err := c.writer.Close()
	c.writer = nil
	return err
}
