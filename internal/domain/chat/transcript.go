// Package chat models the client-side conversation transcript built from
// relay events.
package chat

import (
	"time"

	"github.com/gungunsaluja/FileView/internal/shared/id"
	"github.com/gungunsaluja/FileView/internal/shared/protocol"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one transcript entry. DisplayContent tracks the text rendered
// so far and equals Content once streaming ends.
type Message struct {
	ID             string    `json:"id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	DisplayContent string    `json:"display_content"`
	Streaming      bool      `json:"streaming"`
	CreatedAt      time.Time `json:"created_at"`
}

// Transcript accumulates messages from relay events. It is not safe for
// concurrent use; the event loop owns it.
type Transcript struct {
	messages []Message
	thinking string
	current  int // index of the in-progress assistant message, -1 when none
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{current: -1}
}

// AddUser appends a user message and returns it.
func (t *Transcript) AddUser(content string) Message {
	return t.append(RoleUser, content, false)
}

// AddSystem appends a local notice and returns it.
func (t *Transcript) AddSystem(content string) Message {
	return t.append(RoleSystem, content, false)
}

// Apply folds one relay event into the transcript. Events that carry no
// transcript state (connected) are ignored.
func (t *Transcript) Apply(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeThinking:
		t.thinking = msg.Content

	case protocol.TypeThinkingDone:
		t.thinking = ""

	case protocol.TypeStream:
		if t.current < 0 {
			t.append(RoleAssistant, "", true)
			t.current = len(t.messages) - 1
		}
		t.messages[t.current].Content += msg.Content
		t.messages[t.current].DisplayContent += msg.Content

	case protocol.TypeDone:
		t.thinking = ""
		if t.current < 0 {
			t.append(RoleAssistant, "", true)
			t.current = len(t.messages) - 1
		}
		// The done payload carries the full text and wins over
		// whatever fragments accumulated
		t.messages[t.current].Content = msg.Content
		t.messages[t.current].DisplayContent = msg.Content
		t.messages[t.current].Streaming = false
		t.current = -1

	case protocol.TypeError:
		t.thinking = ""
		if t.current >= 0 {
			t.messages[t.current].Streaming = false
			t.current = -1
		}
		t.append(RoleSystem, msg.Content, false)
	}
}

// Messages returns a copy of the transcript entries.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Last returns the most recent entry, if any.
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Thinking returns the active thinking banner, empty when none.
func (t *Transcript) Thinking() string {
	return t.thinking
}

// Streaming reports whether an assistant message is in progress.
func (t *Transcript) Streaming() bool {
	return t.current >= 0
}

// Len returns the number of transcript entries.
func (t *Transcript) Len() int {
	return len(t.messages)
}

func (t *Transcript) append(role Role, content string, streaming bool) Message {
	msg := Message{
		ID:             id.NewMessageID().String(),
		Role:           role,
		Content:        content,
		DisplayContent: content,
		Streaming:      streaming,
		CreatedAt:      time.Now(),
	}
	t.messages = append(t.messages, msg)
	return msg
}
