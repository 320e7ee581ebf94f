package ai

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrUnavailable is returned when no upstream generator is configured or
// the upstream rejects the request outright.
var ErrUnavailable = errors.New("upstream generator unavailable")

// Generator produces model responses for a prompt. Implementations must be
// safe for concurrent use.
type Generator interface {
	// Generate returns the complete response text in one shot.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream starts a streaming response. The returned stream is
	// lazy: dial and model errors surface on the first Recv.
	GenerateStream(ctx context.Context, prompt string) (Stream, error)
}

// Stream yields response fragments in arrival order. Recv returns io.EOF
// after the final fragment. A stream is finite and cannot be restarted;
// Close releases the underlying call and may be invoked at any point.
type Stream interface {
	Recv() (string, error)
	Close()
}

// drainStream reads a stream to completion and concatenates its fragments.
func drainStream(s Stream) (string, error) {
	var b strings.Builder
	for {
		frag, err := s.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}
