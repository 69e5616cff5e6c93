package roomwire

import (
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
)

// typingNotifier is the local-outbound half of the typing indicator. It
// collapses a burst of keystroke activity into one "typing" start and one
// stop. Two timers back each other up: the idle timer ends the burst after
// a quiet window, and the safety timer, armed once per burst, forces the
// stop even if the idle path never fires, so the remote side can never be
// stuck showing "is typing" forever.
type typingNotifier struct {
	idleAfter   time.Duration
	safetyAfter time.Duration
	emit        func(isTyping bool)

	mu          sync.Mutex
	typing      bool
	idleTimer   *time.Timer
	safetyTimer *time.Timer
}

func newTypingNotifier(idleAfter, safetyAfter time.Duration, emit func(bool)) *typingNotifier {
	return &typingNotifier{
		idleAfter:   idleAfter,
		safetyAfter: safetyAfter,
		emit:        emit,
	}
}

// Activity records one keystroke signal. The first signal of a burst emits
// typing=true and arms both timers; further signals only replace the idle
// timer.
func (n *typingNotifier) Activity() {
	n.mu.Lock()
	first := !n.typing
	n.typing = true
	if n.idleTimer != nil {
		n.idleTimer.Stop()
	}
	n.idleTimer = time.AfterFunc(n.idleAfter, n.Stop)
	if first {
		if n.safetyTimer != nil {
			n.safetyTimer.Stop()
		}
		n.safetyTimer = time.AfterFunc(n.safetyAfter, n.Stop)
	}
	n.mu.Unlock()
	if first {
		n.emit(true)
	}
}

// Stop ends the burst now: idle expiry, safety expiry and the explicit
// send-side cancel all land here. Whichever path runs first wins; the
// typing flag flips under the lock so the stop is emitted once.
func (n *typingNotifier) Stop() {
	n.mu.Lock()
	wasTyping := n.typing
	n.typing = false
	n.cancelTimersLocked()
	n.mu.Unlock()
	if wasTyping {
		n.emit(false)
	}
}

// Cancel tears the machine down without emitting; used on logout and close
// so no timer fires into a discarded session.
func (n *typingNotifier) Cancel() {
	n.mu.Lock()
	n.typing = false
	n.cancelTimersLocked()
	n.mu.Unlock()
}

func (n *typingNotifier) cancelTimersLocked() {
	if n.idleTimer != nil {
		n.idleTimer.Stop()
		n.idleTimer = nil
	}
	if n.safetyTimer != nil {
		n.safetyTimer.Stop()
		n.safetyTimer = nil
	}
}

// typingTracker mirrors remote typing state, keyed by username in insertion
// order. Events for the local user are filtered out before this point.
// Add and remove are idempotent; a stop for an absent user is a no-op.
type typingTracker struct {
	active []string
}

func (t *typingTracker) Apply(st TypingStatus) {
	if st.IsTyping {
		if !lo.Contains(t.active, st.User) {
			t.active = append(t.active, st.User)
		}
		return
	}
	t.active = lo.Without(t.active, st.User)
}

// Display renders the indicator line for the current set. With exactly two
// typers the names appear in insertion order.
func (t *typingTracker) Display() string {
	switch len(t.active) {
	case 0:
		return ""
	case 1:
		return t.active[0] + " is typing…"
	case 2:
		return t.active[0] + " and " + t.active[1] + " are typing…"
	default:
		return fmt.Sprintf("%d people are typing…", len(t.active))
	}
}
