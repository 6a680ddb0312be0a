package mqtt

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/airmonitor/internal/sensor"
)

type doneToken struct {
	paho.Token
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type sent struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient implements the parts of paho.Client the publisher uses.
type fakeClient struct {
	paho.Client
	open       bool
	publishErr error
	sent       []sent
}

func (c *fakeClient) IsConnectionOpen() bool { return c.open }
func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	if c.publishErr == nil {
		c.sent = append(c.sent, sent{topic, qos, retained, payload.([]byte)})
	}
	return doneToken{err: c.publishErr}
}

func testPublisher(c *fakeClient) *RealPublisher {
	now := func() time.Time { return ts }
	return newPublisher(c, slog.New(slog.NewTextHandler(io.Discard, nil)), now)
}

func TestRealPublisherPublishesWhenConnected(t *testing.T) {
	c := &fakeClient{open: true}
	p := testPublisher(c)

	if err := p.PublishAlert(AlertEvent{Timestamp: ts, Event: AlertTriggered, ECO2: 700}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.PublishSystem(SystemEvent{Timestamp: ts, Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(c.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(c.sent))
	}
	if c.sent[0].topic != TopicAlerts || c.sent[0].qos != 1 || c.sent[0].retained {
		t.Errorf("alert message: got %+v", c.sent[0])
	}
	if c.sent[1].topic != TopicSystem || !c.sent[1].retained {
		t.Errorf("system message: got %+v", c.sent[1])
	}
	if p.Buffered() != 0 {
		t.Errorf("expected empty buffer, got %d", p.Buffered())
	}
}

func TestRealPublisherBuffersWhileDisconnected(t *testing.T) {
	c := &fakeClient{}
	p := testPublisher(c)

	for i := 0; i < 3; i++ {
		ev := ReadingEvent{Timestamp: ts, Reading: sensor.Reading{ECO2: uint16(400 + i), Valid: true}}
		if err := p.PublishReading(ev); err != nil {
			t.Fatalf("buffered publish must not fail: %v", err)
		}
	}
	if len(c.sent) != 0 {
		t.Fatalf("nothing should be sent while disconnected, got %d", len(c.sent))
	}
	if p.Buffered() != 3 {
		t.Fatalf("expected 3 buffered, got %d", p.Buffered())
	}

	// First connect replays in order without RECONNECTED.
	c.open = true
	p.onConnect(c)

	if len(c.sent) != 3 {
		t.Fatalf("expected 3 replayed, got %d", len(c.sent))
	}
	for _, m := range c.sent {
		if m.topic != TopicReadings {
			t.Errorf("unexpected topic %s", m.topic)
		}
	}
	if p.Buffered() != 0 {
		t.Errorf("expected buffer drained, got %d", p.Buffered())
	}
}

func TestRealPublisherAnnouncesReconnect(t *testing.T) {
	c := &fakeClient{open: true}
	p := testPublisher(c)

	p.onConnect(c)
	if len(c.sent) != 0 {
		t.Fatalf("first connect should send nothing, got %d", len(c.sent))
	}

	p.onConnect(c)
	if len(c.sent) != 1 {
		t.Fatalf("expected RECONNECTED, got %d messages", len(c.sent))
	}
	want := `{"system":{"timestamp":"2026-02-02T22:18:12Z","event":"RECONNECTED"}}`
	if c.sent[0].topic != TopicSystem || string(c.sent[0].payload) != want {
		t.Errorf("got %s %s", c.sent[0].topic, c.sent[0].payload)
	}
}

func TestRealPublisherLogsFailedReconnectAnnounce(t *testing.T) {
	c := &fakeClient{open: true}
	var logs bytes.Buffer
	p := newPublisher(c, slog.New(slog.NewTextHandler(&logs, nil)), func() time.Time { return ts })

	p.onConnect(c)
	c.publishErr = errors.New("connection reset")
	p.onConnect(c)

	out := logs.String()
	if !strings.Contains(out, "mqtt reconnect announce failed") || !strings.Contains(out, "connection reset") {
		t.Errorf("expected announce failure to be logged, got:\n%s", out)
	}
}

func TestRealPublisherBuffersOnPublishError(t *testing.T) {
	c := &fakeClient{open: true, publishErr: errors.New("not connected")}
	p := testPublisher(c)

	if err := p.PublishAlert(AlertEvent{Event: AlertTriggered}); err == nil {
		t.Error("expected error")
	}
	if p.Buffered() != 1 {
		t.Errorf("failed message should be buffered, got %d", p.Buffered())
	}
}

func TestRealPublisherIsConnected(t *testing.T) {
	c := &fakeClient{}
	p := testPublisher(c)
	if p.IsConnected() {
		t.Error("expected disconnected")
	}
	c.open = true
	if !p.IsConnected() {
		t.Error("expected connected")
	}
}
