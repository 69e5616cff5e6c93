package roomwire

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/roomwire/roomwire-go/roomwire/internal"
)

// Transport is one established bidirectional session.
type Transport interface {
	ReadPacket(ctx context.Context) (Packet, error)
	WritePacket(ctx context.Context, p Packet) error
	Close() error
}

// Dialer opens a Transport. The default dials a WebSocket; tests substitute
// an in-memory pipe.
type Dialer interface {
	Dial(ctx context.Context, url string, timeout time.Duration) (Transport, error)
}

type wsDialer struct {
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (d wsDialer) Dial(ctx context.Context, url string, timeout time.Duration) (Transport, error) {
	dialCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ws, _, err := websocket.Dial(dialCtx, url, nil)
	if err != nil {
		if dialCtx.Err() != nil && ctx.Err() == nil {
			return nil, WrapError(ErrorTimeout, "dial timed out", err)
		}
		return nil, WrapError(ErrorConnection, "dial failed", err)
	}
	return wsTransport{sock: internal.NewSocket(ws, d.readTimeout, d.writeTimeout)}, nil
}

type wsTransport struct {
	sock *internal.Socket
}

func (t wsTransport) ReadPacket(ctx context.Context) (Packet, error) {
	var p Packet
	err := t.sock.ReadJSON(ctx, &p)
	return p, err
}

func (t wsTransport) WritePacket(ctx context.Context, p Packet) error {
	return t.sock.WriteJSON(ctx, p)
}

func (t wsTransport) Close() error {
	return t.sock.Close(websocket.StatusNormalClosure, "client close")
}

// connManager owns the transport session: dialing, capped-backoff reconnect,
// the write path, and the connectivity broadcast. Nothing else touches the
// socket.
type connManager struct {
	cfg      Config
	dialer   Dialer
	logger   Logger
	onPacket func(Packet) // set once before Connect

	mu        sync.Mutex
	running   bool
	connected bool
	state     ConnectionState
	tr        Transport
	cancel    context.CancelFunc
	subs      map[int]chan bool
	nextSub   int
	onState   func(StateEvent)
}

func newConnManager(cfg Config, dialer Dialer, logger Logger) *connManager {
	return &connManager{
		cfg:    cfg,
		dialer: dialer,
		logger: logger,
		state:  StateDisconnected,
		subs:   make(map[int]chan bool),
	}
}

// Connect starts the session loop. It is idempotent: a no-op while the loop
// is running. Dial failures are never returned here; they surface on the
// connectivity stream as false events. Only configuration problems are
// returned.
func (m *connManager) Connect() error {
	if err := m.cfg.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.running = true
	m.cancel = cancel
	m.mu.Unlock()

	m.setState(StateConnecting, nil)
	go m.run(ctx)
	return nil
}

// IsConnected reports the current transport state.
func (m *connManager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Connectivity registers a connectivity subscriber: one boolean per
// transition, independent per subscriber. The returned func detaches the
// subscription and closes the channel.
func (m *connManager) Connectivity() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan bool, 16)
	m.subs[id] = ch
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
}

// Send writes one packet to the live transport.
func (m *connManager) Send(ctx context.Context, p Packet) error {
	m.mu.Lock()
	tr := m.tr
	m.mu.Unlock()
	if tr == nil {
		return NewError(ErrorNotConnected, "no live transport")
	}
	if err := tr.WritePacket(ctx, p); err != nil {
		return WrapError(ErrorConnection, "write failed", err)
	}
	return nil
}

// Close stops the session loop and closes the transport.
func (m *connManager) Close() error {
	m.mu.Lock()
	cancel := m.cancel
	tr := m.tr
	m.cancel = nil
	m.tr = nil
	m.running = false
	wasConnected := m.connected
	m.connected = false
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if wasConnected {
		m.broadcast(false)
	}
	m.setState(StateClosed, nil)
	if tr != nil {
		return tr.Close()
	}
	return nil
}

func (m *connManager) setOnStateChanged(fn func(StateEvent)) {
	m.mu.Lock()
	m.onState = fn
	m.mu.Unlock()
}

// run is the session loop: dial, pump reads until the transport drops, back
// off, repeat. Consecutive failed dials beyond MaxReconnectTries end the
// loop; Connect must be called again to leave that state.
func (m *connManager) run(ctx context.Context) {
	delay := m.cfg.ReconnectInterval
	tries := 0
	for {
		tr, err := m.dialer.Dial(ctx, m.cfg.URL, m.cfg.DialTimeout)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			tries++
			m.logger.Warn("dial failed", map[string]any{"error": err.Error(), "attempt": tries})
			m.broadcast(false)
			if m.cfg.MaxReconnectTries > 0 && tries >= m.cfg.MaxReconnectTries {
				m.logger.Error("reconnect attempts exhausted", map[string]any{"tries": tries})
				m.mu.Lock()
				m.running = false
				m.mu.Unlock()
				m.setState(StateDisconnected, err)
				return
			}
			m.setState(StateReconnecting, err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			delay *= 2
			if m.cfg.MaxReconnectDelay > 0 && delay > m.cfg.MaxReconnectDelay {
				delay = m.cfg.MaxReconnectDelay
			}
			continue
		}

		tries = 0
		delay = m.cfg.ReconnectInterval
		m.mu.Lock()
		m.tr = tr
		m.connected = true
		m.mu.Unlock()
		m.setState(StateConnected, nil)
		m.broadcast(true)

		m.readLoop(ctx, tr)

		m.mu.Lock()
		m.tr = nil
		m.connected = false
		m.mu.Unlock()
		if ctx.Err() != nil {
			// Close already announced the disconnect.
			return
		}
		m.broadcast(false)
		m.setState(StateReconnecting, nil)
	}
}

func (m *connManager) readLoop(ctx context.Context, tr Transport) {
	for {
		p, err := tr.ReadPacket(ctx)
		if err != nil {
			if isExpectedDisconnect(ctx, err) {
				m.logger.Debug("read loop exit", map[string]any{"error": err.Error()})
			} else {
				m.logger.Warn("transport dropped", map[string]any{"error": err.Error()})
			}
			_ = tr.Close()
			return
		}
		if m.onPacket != nil {
			m.onPacket(p)
		}
	}
}

// broadcast pushes one connectivity transition to every subscriber. A
// subscriber that stopped draining loses events rather than stalling the
// session loop.
func (m *connManager) broadcast(connected bool) {
	m.mu.Lock()
	chans := make([]chan bool, 0, len(m.subs))
	for _, ch := range m.subs {
		chans = append(chans, ch)
	}
	m.mu.Unlock()
	for _, ch := range chans {
		select {
		case ch <- connected:
		default:
			m.logger.Warn("connectivity event lost", map[string]any{"connected": connected})
		}
	}
}

func (m *connManager) setState(next ConnectionState, err error) {
	m.mu.Lock()
	prev := m.state
	m.state = next
	fn := m.onState
	m.mu.Unlock()
	if fn != nil && prev != next {
		fn(StateEvent{OldState: prev, NewState: next, Error: err})
	}
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
