package fallback

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, s *Stream) string {
	t.Helper()

	var b strings.Builder
	for {
		frag, err := s.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		b.WriteString(frag)
	}
	return b.String()
}

func TestReplyGreeting(t *testing.T) {
	g := New(Config{})

	first := g.Reply("hi")
	second := g.Reply("hi")

	assert.Equal(t, greetingReply, first)
	assert.Equal(t, first, second)
	assert.Equal(t, greetingReply, g.Reply("Hello!"))
	assert.Equal(t, greetingReply, g.Reply("hey there"))
}

func TestReplyWeather(t *testing.T) {
	g := New(Config{})

	assert.Equal(t, weatherReply, g.Reply("what's the weather like?"))
	assert.Equal(t, weatherReply, g.Reply("Any rain today?"))
}

func TestReplyKeywordPriority(t *testing.T) {
	g := New(Config{})

	// Greeting is checked before weather
	assert.Equal(t, greetingReply, g.Reply("hi, how's the weather?"))
}

func TestReplyEchoDefault(t *testing.T) {
	g := New(Config{})

	reply := g.Reply("tell me about quantum gravity")
	assert.Contains(t, reply, "quantum gravity")
	assert.Contains(t, reply, "No model is connected")
}

func TestReplyWordBoundaries(t *testing.T) {
	g := New(Config{})

	// "sometimes" must not trigger the time rule
	reply := g.Reply("sometimes I wonder")
	assert.Contains(t, reply, "sometimes I wonder")

	// punctuation does not hide a keyword
	assert.Equal(t, timeReply, g.Reply("what time is it?"))
	assert.Equal(t, thanksReply, g.Reply("thanks!"))
}

func TestSplitWordsRoundTrip(t *testing.T) {
	texts := []string{
		"Hello world",
		"Hello world ",
		"one  two   three",
		"single",
		"",
	}

	for _, text := range texts {
		assert.Equal(t, text, strings.Join(splitWords(text), ""), "text %q", text)
	}
}

func TestSplitWordsKeepsTrailingSpace(t *testing.T) {
	words := splitWords("Hello world again")
	assert.Equal(t, []string{"Hello ", "world ", "again"}, words)
}

func TestStreamDeliversWholeReply(t *testing.T) {
	g := New(Config{})

	stream := g.Stream(context.Background(), "hi")
	defer stream.Close()

	assert.Equal(t, g.Reply("hi"), drain(t, stream))
}

func TestStreamContextCancel(t *testing.T) {
	g := New(Config{})

	ctx, cancel := context.WithCancel(context.Background())
	stream := g.Stream(ctx, "hi")
	defer stream.Close()

	_, err := stream.Recv()
	require.NoError(t, err)

	cancel()
	_, err = stream.Recv()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamClose(t *testing.T) {
	g := New(Config{})

	stream := g.Stream(context.Background(), "hi")
	stream.Close()
	stream.Close() // safe to call twice

	_, err := stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamDelayBounds(t *testing.T) {
	g := New(Config{DelayMin: 5 * time.Millisecond, DelayMax: 10 * time.Millisecond})
	stream := g.Stream(context.Background(), "hi")
	defer stream.Close()

	for i := 0; i < 100; i++ {
		d := stream.delay()
		assert.GreaterOrEqual(t, d, 5*time.Millisecond)
		assert.Less(t, d, 10*time.Millisecond)
	}
}

func TestStreamZeroDelay(t *testing.T) {
	g := New(Config{})
	stream := g.Stream(context.Background(), "hi")
	defer stream.Close()

	assert.Equal(t, time.Duration(0), stream.delay())

	start := time.Now()
	drain(t, stream)
	assert.Less(t, time.Since(start), time.Second)
}
