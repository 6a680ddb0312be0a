package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	bufferCapacity = 256
	connectWait    = 10 * time.Second
	publishWait    = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker. While the connection is
// down messages go to a ring buffer and are replayed, oldest first, when
// paho reconnects.
type RealPublisher struct {
	client paho.Client
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool // a connection has been made at least once
}

// NewRealPublisher connects to broker. It registers a retained
// SHUTDOWN/MQTT_DISCONNECT will on TopicSystem. When the broker is not
// reachable within the connect wait the publisher keeps retrying in the
// background and buffers until it succeeds.
func NewRealPublisher(broker, clientID string, logger *slog.Logger) (*RealPublisher, error) {
	p := &RealPublisher{
		logger: logger,
		now:    time.Now,
		buf:    newRingBuffer(bufferCapacity),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: p.now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if token.WaitTimeout(connectWait) {
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("connect to broker: %w", err)
		}
	} else {
		logger.Warn("mqtt broker not reachable yet, buffering", "broker", broker)
	}
	return p, nil
}

func newPublisher(client paho.Client, logger *slog.Logger, now func() time.Time) *RealPublisher {
	return &RealPublisher{
		client: client,
		logger: logger,
		now:    now,
		buf:    newRingBuffer(bufferCapacity),
	}
}

// onConnect replays buffered messages. Reconnects after the first connect
// also announce RECONNECTED.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buf.drainAll()
	reconnect := p.connected
	p.connected = true
	p.mu.Unlock()

	p.logger.Info("mqtt connected", "buffered", len(pending), "reconnect", reconnect)

	for _, m := range pending {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(publishWait) || token.Error() != nil {
			p.logger.Warn("mqtt replay failed", "topic", m.topic, "error", token.Error())
		}
	}

	if !reconnect {
		return
	}
	payload, err := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"})
	if err != nil {
		p.logger.Warn("mqtt reconnect payload", "error", err)
		return
	}
	token := c.Publish(TopicSystem, 1, false, payload)
	if !token.WaitTimeout(publishWait) || token.Error() != nil {
		p.logger.Warn("mqtt reconnect announce failed", "topic", TopicSystem, "error", token.Error())
	}
}

// PublishReading sends an air quality sample.
func (p *RealPublisher) PublishReading(event ReadingEvent) error {
	payload, err := FormatReadingPayload(event)
	if err != nil {
		return fmt.Errorf("format reading payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(TopicReadings, 0, false, payload)
}

// PublishWeather sends a weather reading. The latest one is retained.
func (p *RealPublisher) PublishWeather(event WeatherEvent) error {
	payload, err := FormatWeatherPayload(event)
	if err != nil {
		return fmt.Errorf("format weather payload: %w", err)
	}
	return p.publish(TopicWeather, 0, true, payload)
}

// PublishAlert sends an alert event.
func (p *RealPublisher) PublishAlert(event AlertEvent) error {
	payload, err := FormatAlertPayload(event)
	if err != nil {
		return fmt.Errorf("format alert payload: %w", err)
	}
	// QoS 1 (at-least-once): alerts must not be lost
	return p.publish(TopicAlerts, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.enqueue(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishWait) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		p.enqueue(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (p *RealPublisher) enqueue(m bufferedMsg) {
	p.mu.Lock()
	dropped := p.buf.push(m)
	p.mu.Unlock()
	if dropped {
		p.logger.Warn("mqtt buffer full, dropping oldest", "capacity", bufferCapacity)
	}
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// IsConnected reports whether the client currently holds a connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}
