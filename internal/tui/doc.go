// Package tui implements the terminal chat client on Bubble Tea.
//
// The model owns the conversation transcript and renders it into a viewport
// above a single-line input. Connection events and relay frames arrive
// through a buffered channel bridged from the client handlers, so the
// update loop observes them in arrival order.
//
// Key bindings:
//   - Enter submits the input line
//   - Ctrl+R reconnects after the retry budget is exhausted
//   - PgUp/PgDn scroll the transcript
//   - Ctrl+C or Esc quits
//
// Example Usage:
//
//	cl := client.New(client.Config{URL: url}, logger)
//	p := tea.NewProgram(tui.New(cl, url, "dark"), tea.WithAltScreen())
//	_, err := p.Run()
package tui
