package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
)

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// fakeClient is an in-memory broker delivering synchronously
type fakeClient struct {
	mqtt.Client

	mu        sync.Mutex
	connected bool
	subs      map[string]mqtt.MessageHandler
	published []published
	subErr    error
}

func newFakeClient() *fakeClient {
	return &fakeClient{connected: true, subs: make(map[string]mqtt.MessageHandler)}
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Disconnect(uint) { c.connected = false }

func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subErr != nil {
		return &fakeToken{err: c.subErr}
	}
	c.subs[topic] = callback
	return &fakeToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		delete(c.subs, t)
	}
	return &fakeToken{}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	data := payload.([]byte)

	c.mu.Lock()
	c.published = append(c.published, published{topic: topic, retained: retained, payload: data})
	var handlers []mqtt.MessageHandler
	for pattern, h := range c.subs {
		if topicMatch(pattern, topic) {
			handlers = append(handlers, h)
		}
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(c, &fakeMessage{topic: topic, payload: data})
	}
	return &fakeToken{}
}

func (c *fakeClient) publishedOn(topic string) []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []published
	for _, p := range c.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func TestTopicMatch(t *testing.T) {
	tests := []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"apexie/control/#", "apexie/control/restart", true},
		{"apexie/control/#", "apexie/control", true},
		{"apexie/+/restart", "apexie/control/restart", true},
		{"apexie/+/restart", "apexie/control/shutdown", false},
		{"apexie/control/restart", "apexie/control/restart", true},
		{"apexie/control/restart", "apexie/control/restart/now", false},
		{"apexie/control", "apexie/control/restart", false},
	}
	for _, tt := range tests {
		if got := topicMatch(tt.pattern, tt.topic); got != tt.want {
			t.Errorf("topicMatch(%q, %q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
		}
	}
}

func TestTopicPrefix(t *testing.T) {
	if got := New(newFakeClient(), "").Topic("control", "restart"); got != "apexie/control/restart" {
		t.Errorf("Topic() = %q, want apexie/control/restart", got)
	}
	if got := New(newFakeClient(), "beta").Topic("state"); got != "beta/state" {
		t.Errorf("Topic() = %q, want beta/state", got)
	}
}

func TestRequestResponse(t *testing.T) {
	mc := New(newFakeClient(), "apexie")
	if err := mc.On("ping", func(payload map[string]interface{}) (interface{}, error) {
		return map[string]interface{}{"topic": payload["_topic"], "echo": payload["msg"]}, nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := mc.On("fail", func(map[string]interface{}) (interface{}, error) {
		return nil, errors.New("boom")
	}); err != nil {
		t.Fatal(err)
	}

	data, err := mc.Request("ping", map[string]string{"msg": "hola"}, time.Second)
	if err != nil {
		t.Fatalf("Request(ping) = %v", err)
	}
	got := data.(map[string]interface{})
	if got["topic"] != "ping" || got["echo"] != "hola" {
		t.Errorf("Request(ping) = %v, want topic ping and echo hola", got)
	}

	if _, err := mc.Request("fail", nil, time.Second); err == nil || err.Error() != "boom" {
		t.Errorf("Request(fail) error = %v, want boom", err)
	}
	if _, err := mc.Request("nobody", nil, 20*time.Millisecond); err == nil {
		t.Error("Request(nobody) = nil, want timeout")
	}
}

func TestBridgeRoutesControl(t *testing.T) {
	client := newFakeClient()
	mc := New(client, "apexie")

	restarted := make(chan struct{}, 1)
	stopped := make(chan struct{}, 1)
	b := NewBridge(mc, Control{
		Restart: func(ctx context.Context) error {
			restarted <- struct{}{}
			return nil
		},
		Shutdown: func(ctx context.Context) { stopped <- struct{}{} },
		Status:   func() map[string]interface{} { return map[string]interface{}{"state": "ready"} },
	})
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}

	_ = mc.Publish("apexie/control/restart", struct{}{})
	select {
	case <-restarted:
	case <-time.After(time.Second):
		t.Fatal("restart not triggered")
	}

	_ = mc.Publish("apexie/control/unknown", struct{}{})
	_ = mc.Publish("apexie/control/shutdown", struct{}{})
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("shutdown not triggered")
	}

	data, err := mc.Request("status", nil, time.Second)
	if err != nil {
		t.Fatalf("Request(status) = %v", err)
	}
	if data.(map[string]interface{})["state"] != "ready" {
		t.Errorf("status = %v, want state ready", data)
	}
}

func TestBridgeStartSubscribeError(t *testing.T) {
	client := newFakeClient()
	client.subErr = errors.New("not authorized")
	if err := NewBridge(New(client, ""), Control{}).Start(); err == nil {
		t.Error("Start() = nil, want error")
	}
}

func TestPublishState(t *testing.T) {
	client := newFakeClient()
	b := NewBridge(New(client, "apexie"), Control{})

	b.PublishState("ready")
	msgs := client.publishedOn("apexie/state")
	if len(msgs) != 1 || !msgs[0].retained {
		t.Fatalf("published = %+v, want one retained message", msgs)
	}
	var state StateMessage
	if err := json.Unmarshal(msgs[0].payload, &state); err != nil {
		t.Fatal(err)
	}
	if state.State != "ready" || state.Timestamp == 0 {
		t.Errorf("state = %+v, want ready with a timestamp", state)
	}

	client.connected = false
	b.PublishState("shutting_down")
	if got := len(client.publishedOn("apexie/state")); got != 1 {
		t.Errorf("published while offline: %d messages, want 1", got)
	}
}
