package roomwire

import "encoding/json"

// Wire event names. The protocol grew aliases across server iterations and
// both names stay live for old deployments: outbound emission sends the
// canonical and the legacy name together, inbound handling folds either onto
// the canonical one. The quirk is confined to this file.
const (
	eventJoinRoom       = "join room"
	eventJoinRoomLegacy = "join"

	eventChatMessage       = "chat message"
	eventChatMessageLegacy = "message"

	eventSystemMessage = "system message"

	eventUserList       = "user list"
	eventUserListLegacy = "users"

	eventTyping       = "typing"
	eventTypingStatus = "typing status"
)

// Packet is the wire envelope in both directions.
type Packet struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func newPacket(event string, v any) (Packet, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Packet{}, WrapError(ErrorSerialization, "failed to marshal "+event+" payload", err)
	}
	return Packet{Event: event, Data: data}, nil
}

// canonicalEvent folds legacy aliases onto their canonical names.
func canonicalEvent(name string) string {
	switch name {
	case eventChatMessageLegacy:
		return eventChatMessage
	case eventUserListLegacy:
		return eventUserList
	default:
		return name
	}
}

// joinPayload announces room membership. Old servers read nickname, newer
// ones username; both carry the same value.
type joinPayload struct {
	Nickname string `json:"nickname"`
	Username string `json:"username"`
	Room     string `json:"room"`
}

// chatPayload is the structured outbound message shape. User is duplicated
// into username for the same reason joinPayload carries both keys.
type chatPayload struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	User      string `json:"user"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

// typingStatusPayload mirrors the server's typing rebroadcast. Pointer
// fields so a missing key is distinguishable from a zero value; either one
// missing makes the payload malformed.
type typingStatusPayload struct {
	User     *string `json:"user"`
	IsTyping *bool   `json:"isTyping"`
}
