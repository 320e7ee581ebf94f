// Package ws provides WebSocket handling for streaming chat sessions.
//
// Each connection runs an independent session state machine:
//
//	idle → thinking → streaming → idle
//
// A session greets the client with a connected banner, then serves one chat
// turn at a time. Prompts arriving while a turn is in flight are dropped, not
// queued; the in-flight turn proceeds undisturbed. Turns are served by the
// upstream generator when one was configured at startup and its circuit
// breaker admits the call; otherwise the built-in fallback generator streams
// a canned reply word by word.
//
// Message Types (Client → Server):
//   - chat: Send a prompt
//
// Message Types (Server → Client):
//   - connected: Connection established banner
//   - thinking: Turn accepted, response pending
//   - thinking_done: Status phase over, fragments follow
//   - stream: One response fragment
//   - done: Turn complete, carries the full accumulated text
//   - error: Turn failed
//
// Malformed frames (invalid JSON or an unknown type) are dropped and logged
// without terminating the connection. Closing the socket abandons any
// in-flight turn.
//
// Example Usage:
//
//	handler := ws.NewHandler(ws.Config{Fallback: gen, Metrics: metrics})
//	router.GET("/stream", handler.HandleConnection)
package ws
