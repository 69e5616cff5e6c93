package roomwire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
)

// unknownUser labels messages whose payload carries no sender.
const unknownUser = "Unknown"

// normalizeMessage maps the two inbound chat shapes onto the canonical
// record. Early servers relayed the bare text string; later ones send a
// structured event whose fields drifted between user and username. The id
// falls back to "<user>-<timestamp>", which is what the dedup cache keys
// on. Side-effect free: the cache is never consulted here.
func normalizeMessage(data json.RawMessage, now time.Time) (ChatMessage, error) {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		ts := now.UnixMilli()
		return ChatMessage{
			ID:        deriveID(unknownUser, ts),
			User:      unknownUser,
			Text:      text,
			Timestamp: ts,
		}, nil
	}

	var wire struct {
		ID        string `json:"id"`
		User      string `json:"user"`
		Username  string `json:"username"`
		Text      string `json:"text"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return ChatMessage{}, WrapError(ErrorSerialization, "unreadable chat payload", err)
	}

	user := lo.Ternary(wire.User != "", wire.User, wire.Username)
	if user == "" {
		user = unknownUser
	}
	ts := wire.Timestamp
	if ts == 0 {
		ts = now.UnixMilli()
	}
	id := wire.ID
	if id == "" {
		id = deriveID(user, ts)
	}
	return ChatMessage{ID: id, User: user, Text: wire.Text, Timestamp: ts}, nil
}

func deriveID(user string, ts int64) string {
	return fmt.Sprintf("%s-%d", user, ts)
}
