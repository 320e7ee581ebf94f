// Package fallback serves canned chat replies when no upstream model is
// available, streamed word by word to keep the client experience intact.
package fallback

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// Canned replies keyed on prompt keywords. Selection is deterministic:
// rules are checked in order and the first match wins.
const (
	greetingReply = "Hello there! I'm the built-in assistant for this workspace. Ask me about your files, the weather, or just say hi."
	weatherReply  = "I can't reach a live forecast from here, but it's always sunny inside the terminal. Try a dedicated weather service for the real thing."
	helpReply     = "I can answer a few canned prompts and echo everything else. Try \"hi\", \"weather\", or \"time\"."
	timeReply     = "I don't keep a clock of my own. Your shell prompt or status bar will know better."
	thanksReply   = "You're welcome! Happy to help."
)

type rule struct {
	keywords []string
	reply    string
}

var rules = []rule{
	{keywords: []string{"hi", "hello", "hey", "greetings"}, reply: greetingReply},
	{keywords: []string{"weather", "rain", "sunny", "forecast", "temperature"}, reply: weatherReply},
	{keywords: []string{"help", "what can you do"}, reply: helpReply},
	{keywords: []string{"time", "clock", "date"}, reply: timeReply},
	{keywords: []string{"thanks", "thank you", "thx"}, reply: thanksReply},
}

// Config holds streaming pace settings. Zero values disable the delay
// entirely, which tests rely on.
type Config struct {
	DelayMin time.Duration
	DelayMax time.Duration
}

// Generator produces deterministic canned replies.
type Generator struct {
	delayMin time.Duration
	delayMax time.Duration
}

// New creates a fallback generator.
func New(cfg Config) *Generator {
	return &Generator{
		delayMin: cfg.DelayMin,
		delayMax: cfg.DelayMax,
	}
}

// Reply returns the canned response for a prompt. The same prompt always
// yields the same bytes.
func (g *Generator) Reply(prompt string) string {
	lowered := strings.ToLower(strings.TrimSpace(prompt))
	words := strings.Fields(lowered)

	for _, r := range rules {
		for _, k := range r.keywords {
			if matches(lowered, words, k) {
				return r.reply
			}
		}
	}

	return fmt.Sprintf("You said: %q. No model is connected right now, so that's all I've got.", strings.TrimSpace(prompt))
}

// Stream returns the canned response as a word-by-word stream with
// randomized inter-word delays.
func (g *Generator) Stream(ctx context.Context, prompt string) *Stream {
	return &Stream{
		ctx:   ctx,
		words: splitWords(g.Reply(prompt)),
		min:   g.delayMin,
		max:   g.delayMax,
		done:  make(chan struct{}),
	}
}

// matches reports whether a keyword applies to the prompt. Multi-word
// keywords match as substrings; single words match on word boundaries so
// "time" does not fire on "sometimes".
func matches(lowered string, words []string, keyword string) bool {
	if strings.Contains(keyword, " ") {
		return strings.Contains(lowered, keyword)
	}
	for _, w := range words {
		if strings.Trim(w, ",.!?;:\"'()") == keyword {
			return true
		}
	}
	return false
}

// splitWords splits a reply into fragments that keep their trailing space
// so concatenation reproduces the text byte for byte.
func splitWords(text string) []string {
	if text == "" {
		return nil
	}

	parts := strings.SplitAfter(text, " ")
	words := parts[:0]
	for _, p := range parts {
		if p != "" {
			words = append(words, p)
		}
	}
	return words
}

// Stream replays a canned reply one word at a time. It satisfies the same
// contract as an upstream stream: fragments in order, io.EOF at the end,
// Close abandons the remainder.
type Stream struct {
	ctx   context.Context
	words []string
	idx   int
	min   time.Duration
	max   time.Duration

	done chan struct{}
	once sync.Once
}

// Recv returns the next word, pausing for the configured jitter first.
func (s *Stream) Recv() (string, error) {
	select {
	case <-s.done:
		return "", io.EOF
	case <-s.ctx.Done():
		return "", s.ctx.Err()
	default:
	}

	if s.idx >= len(s.words) {
		return "", io.EOF
	}

	if delay := s.delay(); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			return "", s.ctx.Err()
		case <-s.done:
			return "", io.EOF
		}
	}

	word := s.words[s.idx]
	s.idx++
	return word, nil
}

// Close abandons the stream. Subsequent Recv calls return io.EOF.
func (s *Stream) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Stream) delay() time.Duration {
	if s.max <= 0 {
		return 0
	}
	if s.max <= s.min {
		return s.min
	}
	return s.min + rand.N(s.max-s.min)
}
