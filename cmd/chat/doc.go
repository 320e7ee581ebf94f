// Package main is the entry point for the FileView chat client.
//
// The client connects to a FileView server's /stream endpoint and renders
// the conversation in a terminal UI. Replies stream in token by token;
// when the server has no upstream model configured, its built-in fallback
// answers instead, so the client works the same either way.
//
// Configuration:
//   - ~/.fileview/chat.yaml (server URL, reconnect policy, theme)
//   - FILEVIEW_* environment variables (override the file)
//   - CLI flags (override everything)
//
// Usage:
//
//	# Connect to a local server
//	fileview-chat
//
//	# Connect elsewhere
//	fileview-chat --server ws://example.com:8000/stream
package main
