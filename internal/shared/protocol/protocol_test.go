package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	msg := Message{Type: TypeStream, Content: "Hello "}

	data, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestChatEnvelope(t *testing.T) {
	msg := Chat("what is in this file?")

	assert.Equal(t, TypeChat, msg.Type)
	assert.Equal(t, "what is in this file?", msg.Content)

	data, err := Encode(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"chat","content":"what is in this file?"}`, string(data))
}

func TestDecodeEmptyContent(t *testing.T) {
	// Content is always present on the wire, possibly empty
	msg, err := Decode([]byte(`{"type":"thinking_done","content":""}`))
	require.NoError(t, err)
	assert.Equal(t, TypeThinkingDone, msg.Type)
	assert.Empty(t, msg.Content)

	// A frame omitting content entirely still decodes
	msg, err = Decode([]byte(`{"type":"thinking_done"}`))
	require.NoError(t, err)
	assert.Empty(t, msg.Content)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{not json`},
		{"truncated frame", `{"type":"str`},
		{"empty frame", ``},
		{"missing type", `{"content":"hi"}`},
		{"unknown type", `{"type":"telemetry","content":"x"}`},
		{"wrong type kind", `{"type":42,"content":"x"}`},
		{"array frame", `["chat","hi"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestTypeValid(t *testing.T) {
	valid := []Type{TypeChat, TypeConnected, TypeThinking, TypeThinkingDone, TypeStream, TypeDone, TypeError}
	for _, typ := range valid {
		assert.True(t, typ.Valid(), "type %q should be valid", typ)
	}

	invalid := []Type{"", "ping", "CHAT", "stream ", "complete"}
	for _, typ := range invalid {
		assert.False(t, typ.Valid(), "type %q should be invalid", typ)
	}
}

func TestDecodePreservesUTF8(t *testing.T) {
	data, err := Encode(Message{Type: TypeStream, Content: "héllo → wörld "})
	require.NoError(t, err)

	msg, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "héllo → wörld ", msg.Content)
}
