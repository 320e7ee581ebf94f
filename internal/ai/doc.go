// Package ai wraps the upstream generative model behind a small capability
// interface.
//
// The Generator interface exposes one-shot and streaming generation; the
// Gemini implementation talks to the Google Gen AI SDK with retrying HTTP
// transport underneath. Streams are lazy and finite: errors surface on the
// first Recv, io.EOF marks the end, and Close abandons the call.
//
// Availability is a startup decision. When no API key is configured,
// NewGemini fails with ErrUnavailable and the caller runs without an
// upstream generator instead of probing per turn.
//
// Example Usage:
//
//	gen, err := ai.NewGemini(ctx, ai.Config{APIKey: key, Model: "gemini-2.0-flash"}, logger)
//	if err != nil {
//		// run with the fallback generator only
//	}
//	stream, err := gen.GenerateStream(ctx, prompt)
package ai
