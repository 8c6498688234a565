package realtime

import "encoding/json"

// Frame types exchanged over a realtime connection.
const (
	FrameHello        = "hello"
	FrameWelcome      = "welcome"
	FrameConnectError = "connect_error"
	FrameJoinClient   = "join-client-room"
	FrameJoinAdmin    = "join-admin-room"
	FrameEvent        = "event"
)

// Frame is the single wire shape of the realtime protocol. Fields are
// populated per frame type; unused fields are omitted.
type Frame struct {
	Type string `json:"type"`

	// hello: the preferred credential carrier.
	Token string `json:"token,omitempty"`

	// welcome and connect_error.
	Message  string `json:"message,omitempty"`
	SocketID string `json:"socketId,omitempty"`
	Now      string `json:"now,omitempty"`

	// join-client-room.
	ClientID string `json:"client_id,omitempty"`

	// event broadcasts.
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func welcomeFrame(socketID, now string) Frame {
	return Frame{
		Type:     FrameWelcome,
		Message:  "Connected",
		SocketID: socketID,
		Now:      now,
	}
}

func connectErrorFrame(message string) Frame {
	return Frame{Type: FrameConnectError, Message: message}
}

func eventFrame(event string, payload json.RawMessage) Frame {
	return Frame{Type: FrameEvent, Event: event, Payload: payload}
}
