package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"

	"github.com/conveyor-sim/conveyor-sim/sim/trace"
)

const (
	mqttQoS             = 0
	mqttDisconnectQuiet = 250 // ms
	brokerTimeout       = 5 * time.Second
)

func encodeJSON(s trace.Sample) ([]byte, error) {
	payload, err := json.Marshal(toRecord(s))
	if err != nil {
		return nil, fmt.Errorf("marshalling sample at %.2fs: %w", s.Time, err)
	}
	return payload, nil
}

// mqttPublisher is the part of mqtt.Client the sink uses.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes each sample as JSON to one MQTT topic.
type MQTTSink struct {
	client     mqttPublisher
	topic      string
	disconnect func()
}

// DialMQTT connects to broker (e.g. "tcp://localhost:1883").
func DialMQTT(broker, clientID, topic string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID).SetConnectTimeout(brokerTimeout)
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to mqtt %s: %w", broker, token.Error())
	}
	return &MQTTSink{client: c, topic: topic, disconnect: func() { c.Disconnect(mqttDisconnectQuiet) }}, nil
}

// Publish implements Sink.
func (m *MQTTSink) Publish(_ context.Context, s trace.Sample) error {
	payload, err := encodeJSON(s)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic, mqttQoS, false, payload)
	if !token.WaitTimeout(brokerTimeout) {
		return fmt.Errorf("mqtt publish to %s timed out", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", m.topic, err)
	}
	return nil
}

// Close implements Sink.
func (m *MQTTSink) Close() error {
	if m.disconnect != nil {
		m.disconnect()
	}
	return nil
}

// messageWriter is the part of kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes each sample as a JSON message keyed by run ID, so one
// run stays on one partition.
type KafkaSink struct {
	w messageWriter
}

// NewKafkaSink builds a writer for topic on brokers. Kafka connects lazily
// on the first write.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: brokerTimeout,
	}}
}

// Publish implements Sink.
func (k *KafkaSink) Publish(ctx context.Context, s trace.Sample) error {
	payload, err := encodeJSON(s)
	if err != nil {
		return err
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{Key: []byte(s.RunID), Value: payload, Time: time.Now()}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close implements Sink.
func (k *KafkaSink) Close() error { return k.w.Close() }

// natsPublisher is the part of nats.Conn the sink uses.
type natsPublisher interface {
	Publish(subject string, data []byte) error
	Flush() error
}

// NATSSink publishes each sample as JSON on a subject.
type NATSSink struct {
	conn    natsPublisher
	subject string
	close   func()
}

// DialNATS connects to url (e.g. nats.DefaultURL).
func DialNATS(url, name, subject string) (*NATSSink, error) {
	conn, err := nats.Connect(url, nats.Name(name), nats.Timeout(brokerTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSSink{conn: conn, subject: subject, close: conn.Close}, nil
}

// Publish implements Sink.
func (n *NATSSink) Publish(_ context.Context, s trace.Sample) error {
	payload, err := encodeJSON(s)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("nats publish to %s: %w", n.subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (n *NATSSink) Close() error {
	err := n.conn.Flush()
	if n.close != nil {
		n.close()
	}
	return err
}
