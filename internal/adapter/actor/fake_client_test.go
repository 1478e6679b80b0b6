package actor

import (
	"sync"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMessage struct {
	pahomqtt.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

type published struct {
	topic    string
	payload  string
	retained bool
}

// fakeClient records publishes and keeps subscription handlers so tests can
// deliver messages.
type fakeClient struct {
	pahomqtt.Client
	mu           sync.Mutex
	connected    bool
	published    []published
	handlers     []pahomqtt.MessageHandler
	filters      []string
	subscribeErr error
}

func (c *fakeClient) Connect() pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	return &fakeToken{}
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload any) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	var p string
	switch v := payload.(type) {
	case string:
		p = v
	case []byte:
		p = string(v)
	}
	c.published = append(c.published, published{topic: topic, payload: p, retained: retained})
	return &fakeToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, handler pahomqtt.MessageHandler) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append(c.filters, topic)
	c.handlers = append(c.handlers, handler)
	return &fakeToken{err: c.subscribeErr}
}

func (c *fakeClient) SubscribeMultiple(filters map[string]byte, handler pahomqtt.MessageHandler) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for f := range filters {
		c.filters = append(c.filters, f)
	}
	c.handlers = append(c.handlers, handler)
	return &fakeToken{err: c.subscribeErr}
}

func (c *fakeClient) Unsubscribe(...string) pahomqtt.Token {
	return &fakeToken{}
}

func (c *fakeClient) hasFilter(filter string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.filters {
		if f == filter {
			return true
		}
	}
	return false
}

func (c *fakeClient) deliver(topic string, payload string) {
	c.mu.Lock()
	handlers := append([]pahomqtt.MessageHandler{}, c.handlers...)
	c.mu.Unlock()
	for _, h := range handlers {
		h(c, &fakeMessage{topic: topic, payload: []byte(payload)})
	}
}

// lastOn returns the last message published on topic.
func (c *fakeClient) lastOn(topic string) (published, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.published) - 1; i >= 0; i-- {
		if c.published[i].topic == topic {
			return c.published[i], true
		}
	}
	return published{}, false
}

// spawnUnderCollector spawns props as the child of an actor that collects
// every user message the child sends to its parent.
func spawnUnderCollector(system *actor.ActorSystem, props *actor.Props) (*actor.PID, chan any) {
	out := make(chan any, 64)
	childCh := make(chan *actor.PID, 1)
	collector := actor.PropsFromFunc(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case *actor.Started:
			childCh <- ctx.Spawn(props)
		case *actor.Stopping, *actor.Stopped, *actor.Restarting, *actor.Terminated:
		default:
			select {
			case out <- msg:
			default:
			}
		}
	})
	system.Root.Spawn(collector)
	return <-childCh, out
}

// expect waits for the first message of type T, skipping others.
func expect[T any](ch chan any, timeout time.Duration) (T, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case msg := <-ch:
			if v, ok := msg.(T); ok {
				return v, true
			}
		case <-deadline:
			var zero T
			return zero, false
		}
	}
}
