// Package client maintains the WebSocket connection from the chat client to
// the relay server.
//
// The connection manager owns a small state machine (disconnected,
// connecting, connected) and a desired-state flag. Unexpected closures
// schedule bounded fixed-interval reconnects; an explicit Disconnect flips
// the desired state and always wins over any pending retry. Send fails fast
// with ErrNotConnected rather than queueing, and malformed inbound frames
// are dropped without disturbing the connection.
//
// Example Usage:
//
//	c := client.New(client.Config{
//		URL:                  "ws://localhost:8000/stream",
//		ReconnectInterval:    3 * time.Second,
//		MaxReconnectAttempts: 5,
//	}, logger)
//	c.SetHandlers(client.Handlers{
//		OnMessage: func(msg protocol.Message) { /* render */ },
//	})
//	if err := c.Connect(ctx); err != nil {
//		// retries are already scheduled
//	}
package client
