// Package mqtt implements the MQTT sink connector: one message per row,
// topic and payload produced by a msgfmt.JSONFormatter (or any formatter
// that returns a []msgfmt.TopicPayload InsertPayload result), grounded on
// original_source's MqttWriter/MqttClient test doubles
// (TestMqttWriter.cpp) for the connect/publish/disconnect shape.
package mqtt

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/format"
	"github.com/taosdata/taosgen/internal/format/msgfmt"
)

// Config mirrors MqttInfo (host/port/credentials/QoS/retain/keepalive),
// generalized with a ClientID suffix since every pooled connector needs
// its own MQTT session.
type Config struct {
	Broker       string
	ClientID     string
	Username     string
	Password     string
	KeepAlive    time.Duration
	CleanSession bool
	QoS          byte
	Retain       bool
	ConnectWait  time.Duration
}

// Connector is one MQTT publishing session.
type Connector struct {
	cfg    Config
	client paho.Client
}

// New builds an unconnected Connector.
func New(cfg Config) *Connector {
	return &Connector{cfg: cfg}
}

// Connect dials the broker, matching MqttClient::connect.
func (c *Connector) Connect(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(c.cfg.Broker).
		SetClientID(c.cfg.ClientID).
		SetUsername(c.cfg.Username).
		SetPassword(c.cfg.Password).
		SetKeepAlive(c.cfg.KeepAlive).
		SetCleanSession(c.cfg.CleanSession).
		SetAutoReconnect(false).
		SetConnectRetry(false)

	c.client = paho.NewClient(opts)

	token := c.client.Connect()
	wait := c.cfg.ConnectWait
	if wait <= 0 {
		wait = 10 * time.Second
	}
	if !token.WaitTimeout(wait) {
		return errors.New("mqtt: timed out connecting to broker")
	}
	if err := token.Error(); err != nil {
		return errors.Wrap(err, "mqtt: connecting to broker")
	}
	return nil
}

// Execute publishes every TopicPayload in result one at a time, matching
// MqttWriter::write's per-message publish loop (batched publish_batch in
// the original collapses to the same per-message call here since
// paho.mqtt.golang has no native batch-publish API).
func (c *Connector) Execute(ctx context.Context, result format.Result) error {
	if result.Kind != format.InsertPayload {
		return errors.Newf("mqtt: unsupported result kind %v", result.Kind)
	}

	messages, ok := result.Payload.([]msgfmt.TopicPayload)
	if !ok {
		return errors.New("mqtt: result payload is not []msgfmt.TopicPayload")
	}

	for _, msg := range messages {
		token := c.client.Publish(msg.Topic, c.cfg.QoS, c.cfg.Retain, msg.Payload)
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		token.Wait()
		if err := token.Error(); err != nil {
			return errors.Wrapf(err, "mqtt: publishing to topic %q", msg.Topic)
		}
	}
	return nil
}

// IsValid reports whether the underlying client still holds a live
// connection, matching DatabaseConnector::is_valid().
func (c *Connector) IsValid() bool {
	return c.client != nil && c.client.IsConnected()
}

// ResetState is a no-op: an MQTT session carries no per-execute state
// beyond the topic/payload passed to each Execute call, unlike a bound
// prepared statement.
func (c *Connector) ResetState() {}

// Close disconnects, matching MqttClient::disconnect.
func (c *Connector) Close() error {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
	return nil
}
