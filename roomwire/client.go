package roomwire

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client is the session coordinator. It is the only component that talks to
// the connection manager and to the presentation layer: every inbound
// packet funnels through handlePacket on the manager's read goroutine,
// which keeps the dedup cache, roster tracker and typing tracker on a
// single dispatch timeline.
type Client struct {
	cfg        Config
	logger     Logger
	conns      *connManager
	dispatcher Dispatcher
	typing     *typingNotifier
	sounder    Sounder
	notifier   Notifier

	mu       sync.Mutex
	user     string
	room     string
	joined   bool
	detached bool
	cache    *DedupCache
	roster   rosterTracker
	typers   typingTracker
	connStop func()
}

// NewClient constructs a client with the provided config. Use
// DefaultConfig() as a starting point and modify as needed.
func NewClient(cfg Config) *Client {
	c := &Client{
		cfg:      cfg,
		logger:   noopLogger{},
		cache:    NewDedupCache(cfg.DedupeLimit),
		sounder:  noopSounder{},
		notifier: noopNotifier{},
	}
	c.conns = newConnManager(cfg, wsDialer{
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
	}, c.logger)
	c.conns.onPacket = c.handlePacket
	c.typing = newTypingNotifier(cfg.TypingIdleTimeout, cfg.TypingSafetyTimeout, c.emitTyping)
	return c
}

// SetLogger overrides the logger (optional).
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.logger = l
	c.conns.logger = l
}

// SetDialer overrides the transport dialer (optional). Must be called
// before Connect.
func (c *Client) SetDialer(d Dialer) {
	if d != nil {
		c.conns.dialer = d
	}
}

// SetSounder injects the message-sound capability (optional).
func (c *Client) SetSounder(s Sounder) {
	if s != nil {
		c.sounder = s
	}
}

// SetNotifier injects the presence-notification capability (optional).
func (c *Client) SetNotifier(n Notifier) {
	if n != nil {
		c.notifier = n
	}
}

// OnConnectivity registers a callback for connectivity transitions.
func (c *Client) OnConnectivity(fn func(bool)) { c.dispatcher.SetOnConnectivity(fn) }

// OnMessage registers a callback for deduplicated chat messages.
func (c *Client) OnMessage(fn func(ChatMessage)) { c.dispatcher.SetOnMessage(fn) }

// OnSystemMessage registers a callback for system messages.
func (c *Client) OnSystemMessage(fn func(string)) { c.dispatcher.SetOnSystemMessage(fn) }

// OnRoster registers a callback for roster updates.
func (c *Client) OnRoster(fn func(RosterUpdate)) { c.dispatcher.SetOnRoster(fn) }

// OnTyping registers a callback for the derived remote-typing display line.
func (c *Client) OnTyping(fn func(string)) { c.dispatcher.SetOnTyping(fn) }

// OnError registers a callback for non-fatal errors.
func (c *Client) OnError(fn func(error)) { c.dispatcher.SetOnError(fn) }

// OnStateChanged registers a callback for connection state transitions.
func (c *Client) OnStateChanged(fn func(StateEvent)) { c.conns.setOnStateChanged(fn) }

// Connect opens the transport session and starts the reconnect loop. Dial
// failures are not returned; they surface as connectivity=false events.
func (c *Client) Connect() error {
	c.mu.Lock()
	c.ensureWatcherLocked()
	c.mu.Unlock()
	return c.conns.Connect()
}

// ensureWatcherLocked attaches the connectivity watcher if none is running.
// Callers hold c.mu.
func (c *Client) ensureWatcherLocked() {
	if c.connStop != nil {
		return
	}
	ch, stop := c.conns.Connectivity()
	c.connStop = stop
	go c.watchConnectivity(ch)
}

// IsConnected reports the current transport state.
func (c *Client) IsConnected() bool {
	return c.conns.IsConnected()
}

// Session returns the current identity and connectivity snapshot.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Session{User: c.user, Room: c.room, Connected: c.conns.IsConnected()}
}

// Join records the session identity and announces room membership. Before
// the transport is up the announcement is deferred to the next connect
// transition. Joining again switches rooms: membership is re-announced and
// all room-scoped state restarts — the dedup cache so ids from the previous
// room cannot suppress messages in the new one, and the roster and typing
// trackers so the previous room's presence never bleeds into the new one.
func (c *Client) Join(ctx context.Context, user, room string) error {
	c.mu.Lock()
	c.user = user
	c.room = room
	c.joined = false
	c.detached = false
	c.cache.Clear()
	c.roster = rosterTracker{}
	hadTypers := len(c.typers.active) > 0
	c.typers = typingTracker{}
	c.ensureWatcherLocked()
	c.mu.Unlock()
	if hadTypers {
		// The new room starts with nobody typing.
		c.dispatcher.fireTyping("")
	}
	if !c.conns.IsConnected() {
		return nil
	}
	return c.announceJoin(ctx, user, room)
}

// Send publishes text to the joined room. Blank or whitespace-only input is
// dropped silently. The synthesized id is recorded before transmission so
// the server's echo of our own message is recognized as already delivered.
func (c *Client) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()

	msg := ChatMessage{
		ID:        uuid.NewString(),
		User:      user,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	c.mu.Lock()
	c.cache.Record(msg.ID)
	c.mu.Unlock()

	payload := chatPayload{
		ID:        msg.ID,
		Text:      msg.Text,
		User:      msg.User,
		Username:  msg.User,
		Timestamp: msg.Timestamp,
	}
	if err := c.sendEvent(ctx, eventChatMessage, payload); err != nil {
		return err
	}
	if err := c.sendEvent(ctx, eventChatMessageLegacy, msg.Text); err != nil {
		return err
	}
	c.typing.Stop()
	return nil
}

// Typing records one keystroke-activity signal from the local input.
func (c *Client) Typing() {
	c.typing.Activity()
}

// Logout resets the session to an empty identity, cancels all pending
// typing timers and detaches from the transport: the connectivity watcher
// stops and inbound dispatch is gated until the next Join, so no event is
// delivered into the discarded session. The transport itself stays up; call
// Close to tear it down.
func (c *Client) Logout() {
	c.typing.Cancel()
	c.mu.Lock()
	c.user = ""
	c.room = ""
	c.joined = false
	c.detached = true
	c.cache.Clear()
	c.roster = rosterTracker{}
	c.typers = typingTracker{}
	stop := c.connStop
	c.connStop = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Close shuts down the transport and all background work.
func (c *Client) Close() error {
	c.typing.Cancel()
	c.mu.Lock()
	stop := c.connStop
	c.connStop = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
	return c.conns.Close()
}

// watchConnectivity republishes connectivity to the presentation layer and
// re-announces membership after a reconnect: a false->true transition with
// an identity recorded means the server no longer knows us. The joined flag
// guards against announcing twice when Join itself already reached the
// server on this connection.
func (c *Client) watchConnectivity(ch <-chan bool) {
	for connected := range ch {
		c.mu.Lock()
		user, room, joined := c.user, c.room, c.joined
		if !connected {
			c.joined = false
		}
		c.mu.Unlock()
		if connected && !joined && user != "" && room != "" {
			if err := c.announceJoin(context.Background(), user, room); err != nil {
				c.logger.Warn("membership re-announce failed", map[string]any{"error": err.Error()})
			}
		}
		c.dispatcher.fireConnectivity(connected)
	}
}

func (c *Client) announceJoin(ctx context.Context, user, room string) error {
	payload := joinPayload{Nickname: user, Username: user, Room: room}
	if err := c.sendEvent(ctx, eventJoinRoom, payload); err != nil {
		return err
	}
	if err := c.sendEvent(ctx, eventJoinRoomLegacy, payload); err != nil {
		return err
	}
	c.mu.Lock()
	c.joined = true
	c.mu.Unlock()
	c.logger.Info("joined room", map[string]any{"user": user, "room": room})
	return nil
}

func (c *Client) sendEvent(ctx context.Context, event string, v any) error {
	p, err := newPacket(event, v)
	if err != nil {
		return err
	}
	return c.conns.Send(ctx, p)
}

// emitTyping is the typing machine's transmit hook. Emission requires a
// live transport; otherwise the attempt is dropped, not queued.
func (c *Client) emitTyping(isTyping bool) {
	if !c.conns.IsConnected() {
		return
	}
	if err := c.sendEvent(context.Background(), eventTyping, isTyping); err != nil {
		c.logger.Debug("typing emit dropped", map[string]any{"error": err.Error()})
	}
}

// handlePacket is the single inbound dispatch point, invoked on the
// manager's read goroutine in transport delivery order. A logged-out
// session drops everything until the next Join.
func (c *Client) handlePacket(p Packet) {
	c.mu.Lock()
	detached := c.detached
	c.mu.Unlock()
	if detached {
		c.logger.Debug("event dropped after logout", map[string]any{"event": p.Event})
		return
	}
	switch canonicalEvent(p.Event) {
	case eventChatMessage:
		c.handleChat(p.Data)
	case eventSystemMessage:
		c.handleSystem(p.Data)
	case eventUserList:
		c.handleRoster(p.Data)
	case eventTypingStatus:
		c.handleTypingStatus(p.Data)
	default:
		c.logger.Debug("unhandled event", map[string]any{"event": p.Event})
	}
}

func (c *Client) handleChat(data json.RawMessage) {
	msg, err := normalizeMessage(data, time.Now())
	if err != nil {
		c.dispatcher.fireError(err)
		return
	}
	c.mu.Lock()
	if c.cache.Seen(msg.ID) {
		c.mu.Unlock()
		return
	}
	c.cache.Record(msg.ID)
	remote := c.user == "" || msg.User != c.user
	c.mu.Unlock()
	if remote {
		c.sounder.MessageReceived()
	}
	c.dispatcher.fireMessage(msg)
}

// handleSystem delivers system messages verbatim; they bypass dedup.
func (c *Client) handleSystem(data json.RawMessage) {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		c.dispatcher.fireError(WrapError(ErrorSerialization, "unreadable system message", err))
		return
	}
	c.dispatcher.fireSystemMessage(text)
}

func (c *Client) handleRoster(data json.RawMessage) {
	var users []string
	if err := json.Unmarshal(data, &users); err != nil {
		c.dispatcher.fireError(WrapError(ErrorSerialization, "unreadable user list", err))
		return
	}
	c.mu.Lock()
	update := c.roster.Apply(users)
	c.mu.Unlock()
	switch update.Change {
	case PresenceJoined:
		c.notifier.Notify("Room update", "Someone joined the room")
	case PresenceLeft:
		c.notifier.Notify("Room update", "Someone left the room")
	}
	c.dispatcher.fireRoster(update)
}

func (c *Client) handleTypingStatus(data json.RawMessage) {
	var st typingStatusPayload
	if err := json.Unmarshal(data, &st); err != nil || st.User == nil || st.IsTyping == nil {
		c.logger.Warn("malformed typing status dropped", map[string]any{"payload": string(data)})
		return
	}
	c.mu.Lock()
	if *st.User == c.user && c.user != "" {
		// The viewer never appears in their own typing display.
		c.mu.Unlock()
		return
	}
	c.typers.Apply(TypingStatus{User: *st.User, IsTyping: *st.IsTyping})
	display := c.typers.Display()
	c.mu.Unlock()
	c.dispatcher.fireTyping(display)
}
