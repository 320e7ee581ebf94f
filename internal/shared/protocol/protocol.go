package protocol

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// MaxFrameSize bounds a single wire frame. Applied as the socket read limit on
// both ends; oversized frames terminate the read, not the process.
const MaxFrameSize = 64 * 1024

// ErrMalformed marks frames that fail decoding: invalid JSON or a type
// outside the protocol vocabulary. Receivers drop such frames without
// terminating the connection.
var ErrMalformed = errors.New("malformed frame")

// Type tags a session message.
type Type string

const (
	// TypeChat is the only client-to-server type: a user prompt.
	TypeChat Type = "chat"

	// TypeConnected is the banner sent once after connection establishment.
	TypeConnected Type = "connected"
	// TypeThinking signals the status phase of a turn, once per turn.
	TypeThinking Type = "thinking"
	// TypeThinkingDone ends the status phase, before the first fragment.
	TypeThinkingDone Type = "thinking_done"
	// TypeStream carries one text fragment, in order.
	TypeStream Type = "stream"
	// TypeDone ends a successful turn with the full accumulated text.
	TypeDone Type = "done"
	// TypeError ends a failed turn with a human-readable message.
	TypeError Type = "error"
)

// Valid reports whether t belongs to the protocol vocabulary.
func (t Type) Valid() bool {
	switch t {
	case TypeChat, TypeConnected, TypeThinking, TypeThinkingDone, TypeStream, TypeDone, TypeError:
		return true
	}
	return false
}

// Message is the wire unit exchanged in both directions. Content is always
// present, possibly empty.
type Message struct {
	Type    Type   `json:"type"`
	Content string `json:"content"`
}

// Chat builds the client-side envelope for a user prompt.
func Chat(content string) Message {
	return Message{Type: TypeChat, Content: content}
}

// Encode serializes a message to a JSON text frame.
func Encode(msg Message) ([]byte, error) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", msg.Type, err)
	}
	return data, nil
}

// Decode parses a wire frame. Frames that are not valid JSON, or whose type
// is missing or unknown, fail with ErrMalformed.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !msg.Type.Valid() {
		return Message{}, fmt.Errorf("%w: unknown type %q", ErrMalformed, msg.Type)
	}
	return msg, nil
}
