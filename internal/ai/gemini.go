package ai

import (
	"context"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/gungunsaluja/FileView/internal/infrastructure/logging"
)

// Config holds upstream client settings.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int32
}

// Gemini implements Generator on top of the Google Gen AI SDK.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int32
	logger    *logging.Logger
}

// Verify interface compliance.
var _ Generator = (*Gemini)(nil)

// NewGemini creates an upstream client. Availability is decided once at
// startup: an empty API key is rejected here rather than checked per turn.
func NewGemini(ctx context.Context, cfg Config, logger *logging.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}

	// Transient transport errors are retried below the SDK
	retry := retryablehttp.NewClient()
	retry.RetryMax = 2
	retry.RetryWaitMin = 200 * time.Millisecond
	retry.RetryWaitMax = 2 * time.Second
	retry.Logger = nil

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		HTTPClient: retry.StandardClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Gemini{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string {
	return g.model
}

// Generate returns the complete response text by draining a stream.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	stream, err := g.GenerateStream(ctx, prompt)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	return drainStream(stream)
}

// GenerateStream starts a streaming generation call.
func (g *Gemini) GenerateStream(ctx context.Context, prompt string) (Stream, error) {
	g.logger.Debug("starting upstream stream", zap.String("model", g.model))

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}

	config := &genai.GenerateContentConfig{}
	if g.maxTokens > 0 {
		config.MaxOutputTokens = g.maxTokens
	}

	streamCtx, cancel := context.WithCancel(ctx)
	seq := g.client.Models.GenerateContentStream(streamCtx, g.model, contents, config)
	next, stop := iter.Pull2(seq)

	return &geminiStream{
		next:   next,
		stop:   stop,
		cancel: cancel,
	}, nil
}

// geminiStream adapts the SDK push iterator to the pull-style Stream.
type geminiStream struct {
	next    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	cancel  context.CancelFunc
	pending []string
}

// Recv returns the next text fragment. A single SDK response may carry
// several parts; they are queued and handed out one at a time so fragment
// boundaries survive verbatim.
func (s *geminiStream) Recv() (string, error) {
	for {
		if len(s.pending) > 0 {
			frag := s.pending[0]
			s.pending = s.pending[1:]
			return frag, nil
		}

		resp, err, ok := s.next()
		if !ok {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("upstream stream: %w", err)
		}
		if resp == nil {
			continue
		}

		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part.Text != "" {
					s.pending = append(s.pending, part.Text)
				}
			}
		}
	}
}

// Close abandons the stream. Subsequent Recv calls return io.EOF.
func (s *geminiStream) Close() {
	s.stop()
	s.cancel()
}
