package roomwire

// ChatMessage is the canonical message record every inbound chat payload is
// normalized into. Immutable once built; ID is always set before the dedup
// check runs.
type ChatMessage struct {
	ID        string `json:"id,omitempty"`
	User      string `json:"user"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // epoch millis
}

// TypingStatus is a single remote typing transition, last-write-wins per user.
type TypingStatus struct {
	User     string
	IsTyping bool
}

// PresenceChange labels the direction of a roster size transition.
type PresenceChange int

const (
	PresenceNone PresenceChange = iota
	PresenceJoined
	PresenceLeft
)

// String returns the string representation of a PresenceChange.
func (p PresenceChange) String() string {
	switch p {
	case PresenceJoined:
		return "joined"
	case PresenceLeft:
		return "left"
	default:
		return "none"
	}
}

// RosterUpdate carries the latest membership snapshot wholesale, plus the
// delta against the previous snapshot. The server sends full lists only, so
// the delta is inferred from size alone; a same-size swap (one join and one
// leave between snapshots) is indistinguishable from no change.
type RosterUpdate struct {
	Users  []string
	Change PresenceChange
}

// Session is a snapshot of the current identity and connectivity.
type Session struct {
	User      string
	Room      string
	Connected bool
}
