// Package protocol defines the session message vocabulary exchanged over the
// chat stream socket.
//
// Every frame in both directions is one Message: a type tag plus a free-form
// content payload. Clients send only chat; the server answers with the
// remaining six types.
//
// Message Types (Client → Server):
//   - chat: User prompt for a new turn
//
// Message Types (Server → Client):
//   - connected: Banner, once per connection
//   - thinking: Status phase started, once per turn
//   - thinking_done: Status phase ended, before the first fragment
//   - stream: One text fragment, zero or more per turn
//   - done: Turn finished, carries the full accumulated text
//   - error: Turn failed, carries a human-readable message
//
// Encoding is JSON via sonic; Decode rejects frames whose type is missing or
// outside this vocabulary so receivers can drop them uniformly.
//
// Example Usage:
//
//	data, _ := protocol.Encode(protocol.Chat("hello"))
//	msg, err := protocol.Decode(data)
//	if errors.Is(err, protocol.ErrMalformed) {
//	    // drop the frame, keep the connection
//	}
package protocol
