package roomwire

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"
)

// fakeTransport is an in-memory Transport: inbound packets arrive on a
// channel, outbound packets are recorded.
type fakeTransport struct {
	in chan Packet

	mu     sync.Mutex
	sent   []Packet
	closed chan struct{}
	once   sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:     make(chan Packet, 32),
		closed: make(chan struct{}),
	}
}

func (t *fakeTransport) ReadPacket(ctx context.Context) (Packet, error) {
	select {
	case p := <-t.in:
		return p, nil
	case <-t.closed:
		return Packet{}, io.EOF
	case <-ctx.Done():
		return Packet{}, ctx.Err()
	}
}

func (t *fakeTransport) WritePacket(_ context.Context, p Packet) error {
	t.mu.Lock()
	t.sent = append(t.sent, p)
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) Close() error {
	t.once.Do(func() { close(t.closed) })
	return nil
}

// deliver pushes an inbound wire event to the client.
func (t *fakeTransport) deliver(tb testing.TB, event string, v any) {
	tb.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		tb.Fatalf("marshal %s payload: %v", event, err)
	}
	select {
	case t.in <- Packet{Event: event, Data: data}:
	case <-time.After(time.Second):
		tb.Fatalf("deliver %s: inbound buffer full", event)
	}
}

// sentEvents returns the outbound packets recorded for one event name.
func (t *fakeTransport) sentEvents(event string) []Packet {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Packet
	for _, p := range t.sent {
		if p.Event == event {
			out = append(out, p)
		}
	}
	return out
}

// fakeDialer hands out fakeTransports, optionally failing the first N dials.
type fakeDialer struct {
	mu    sync.Mutex
	fails int
	dials int
	conns chan *fakeTransport
}

func newFakeDialer(fails int) *fakeDialer {
	return &fakeDialer{fails: fails, conns: make(chan *fakeTransport, 8)}
}

func (d *fakeDialer) Dial(_ context.Context, _ string, _ time.Duration) (Transport, error) {
	d.mu.Lock()
	d.dials++
	fail := d.dials <= d.fails
	d.mu.Unlock()
	if fail {
		return nil, NewError(ErrorConnection, "connection refused")
	}
	tr := newFakeTransport()
	d.conns <- tr
	return tr, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// waitTransport blocks until the dialer hands out the next transport.
func waitTransport(tb testing.TB, d *fakeDialer) *fakeTransport {
	tb.Helper()
	select {
	case tr := <-d.conns:
		return tr
	case <-time.After(2 * time.Second):
		tb.Fatal("no transport dialed in time")
		return nil
	}
}

// testConfig is DefaultConfig tuned so reconnect and typing paths run in
// milliseconds.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.URL = "ws://test.invalid/ws"
	cfg.ReconnectInterval = 5 * time.Millisecond
	cfg.MaxReconnectDelay = 20 * time.Millisecond
	cfg.MaxReconnectTries = 0
	cfg.TypingIdleTimeout = 40 * time.Millisecond
	cfg.TypingSafetyTimeout = 400 * time.Millisecond
	return cfg
}

func newTestClient(tb testing.TB, cfg Config) (*Client, *fakeDialer) {
	tb.Helper()
	d := newFakeDialer(0)
	c := NewClient(cfg)
	c.SetDialer(d)
	tb.Cleanup(func() { _ = c.Close() })
	return c, d
}
