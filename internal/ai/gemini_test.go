package ai

import (
	"context"
	"errors"
	"io"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/gungunsaluja/FileView/internal/infrastructure/logging"
)

func textResponse(fragments ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(fragments))
	for _, f := range fragments {
		parts = append(parts, &genai.Part{Text: f})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: parts}},
		},
	}
}

func newFakeStream(fail error, responses ...*genai.GenerateContentResponse) *geminiStream {
	seq := iter.Seq2[*genai.GenerateContentResponse, error](func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, r := range responses {
			if !yield(r, nil) {
				return
			}
		}
		if fail != nil {
			yield(nil, fail)
		}
	})
	next, stop := iter.Pull2(seq)
	return &geminiStream{next: next, stop: stop, cancel: func() {}}
}

func TestNewGeminiRequiresAPIKey(t *testing.T) {
	_, err := NewGemini(context.Background(), Config{Model: "gemini-2.0-flash"}, logging.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestStreamPreservesFragmentBoundaries(t *testing.T) {
	stream := newFakeStream(nil,
		textResponse("Hello ", "there"),
		textResponse("!"),
	)
	defer stream.Close()

	var got []string
	for {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, frag)
	}

	assert.Equal(t, []string{"Hello ", "there", "!"}, got)
}

func TestStreamSkipsEmptyParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []*genai.Part{{Text: ""}, {Text: "ok"}}}},
		},
	}

	// A nil response mid-stream is tolerated as well
	stream := newFakeStream(nil, nil, resp)
	defer stream.Close()

	frag, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "ok", frag)

	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamSurfacesErrors(t *testing.T) {
	stream := newFakeStream(errors.New("quota exceeded"), textResponse("partial"))
	defer stream.Close()

	frag, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "partial", frag)

	_, err = stream.Recv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestStreamCloseStopsRecv(t *testing.T) {
	stream := newFakeStream(nil, textResponse("never delivered"))
	stream.Close()

	_, err := stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDrainStream(t *testing.T) {
	stream := newFakeStream(nil, textResponse("Hello ", "world"))
	defer stream.Close()

	text, err := drainStream(stream)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
}

func TestDrainStreamError(t *testing.T) {
	stream := newFakeStream(errors.New("network down"))
	defer stream.Close()

	_, err := drainStream(stream)
	require.Error(t, err)
}
