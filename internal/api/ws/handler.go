package ws

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gungunsaluja/FileView/internal/ai"
	"github.com/gungunsaluja/FileView/internal/domain/fallback"
	"github.com/gungunsaluja/FileView/internal/infrastructure/monitoring"
	"github.com/gungunsaluja/FileView/internal/infrastructure/resilience"
	"github.com/gungunsaluja/FileView/internal/shared/id"
	"github.com/gungunsaluja/FileView/internal/shared/protocol"
	"github.com/gungunsaluja/FileView/internal/shared/utils"
)

// ConnectedText greets every new connection.
const ConnectedText = "Connected to FileView chat"

// ThinkingText is the fixed status line opening every turn.
const ThinkingText = "Thinking..."

// phase tracks a session's position within the turn lifecycle.
type phase int

const (
	phaseIdle phase = iota
	phaseThinking
	phaseStreaming
)

func (p phase) String() string {
	switch p {
	case phaseThinking:
		return "thinking"
	case phaseStreaming:
		return "streaming"
	default:
		return "idle"
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin policy is enforced on the REST surface
	},
}

// Config wires the handler's collaborators. Upstream may be nil; every turn
// is then served by the fallback generator. Metrics must be non-nil.
type Config struct {
	Upstream ai.Generator
	Fallback *fallback.Generator
	Breaker  *resilience.Breaker
	Metrics  *monitoring.Metrics
	Logger   *zap.Logger
	Timeout  time.Duration
}

// Handler upgrades HTTP requests and runs one chat session per socket.
type Handler struct {
	upstream ai.Generator
	fallback *fallback.Generator
	breaker  *resilience.Breaker
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	timeout  time.Duration
}

// NewHandler creates a WebSocket session handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fb := cfg.Fallback
	if fb == nil {
		fb = fallback.New(fallback.Config{})
	}
	breaker := cfg.Breaker
	if cfg.Upstream != nil && breaker == nil {
		breaker = resilience.New("upstream", resilience.Settings{})
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Handler{
		upstream: cfg.Upstream,
		fallback: fb,
		breaker:  breaker,
		metrics:  cfg.Metrics,
		logger:   logger,
		timeout:  timeout,
	}
}

// HandleConnection upgrades the request and runs the session until the
// socket closes. Closing the socket abandons any in-flight turn.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sess := &session{
		id:      uuid.NewString(),
		conn:    conn,
		connCtx: ctx,
		h:       h,
	}
	sess.logger = h.logger.With(zap.String("session_id", sess.id))

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	sess.logger.Info("session opened", zap.String("remote", conn.RemoteAddr().String()))
	sess.run(ctx)
	sess.logger.Info("session closed")
}

// session is the per-connection protocol state machine.
type session struct {
	id      string
	conn    *websocket.Conn
	connCtx context.Context
	h       *Handler
	logger  *zap.Logger

	writeMu sync.Mutex // gorilla allows one concurrent writer

	mu         sync.Mutex
	phase      phase
	turnCancel context.CancelFunc
}

// run reads frames until the socket closes. All writes happen from the turn
// goroutine; the read loop only dispatches.
func (s *session) run(ctx context.Context) {
	s.conn.SetReadLimit(protocol.MaxFrameSize)

	if err := s.send(protocol.TypeConnected, ConnectedText); err != nil {
		s.logger.Warn("failed to send connected banner", zap.Error(err))
		return
	}

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info("connection closed unexpectedly", zap.Error(err))
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			s.logger.Warn("dropping malformed frame",
				zap.Error(err),
				zap.Int("bytes", len(data)),
			)
			continue
		}
		s.h.metrics.RecordWSMessage("in", string(msg.Type))

		if msg.Type != protocol.TypeChat {
			s.logger.Warn("dropping non-chat frame", zap.String("type", string(msg.Type)))
			continue
		}

		s.handleChat(ctx, msg.Content)
	}
}

// handleChat starts a turn for a prompt. Prompts arriving while a turn is in
// flight are dropped, not queued; the in-flight turn proceeds undisturbed.
// Invalid prompts get an error event and the session stays idle.
func (s *session) handleChat(ctx context.Context, content string) {
	turnCtx, ok := s.beginTurn(ctx)
	if !ok {
		s.logger.Warn("dropping chat while turn in flight", zap.Stringer("phase", s.currentPhase()))
		return
	}

	if err := utils.ValidateMessage(content); err != nil {
		s.endTurn()
		s.logger.Warn("rejecting invalid chat message", zap.Error(err))
		if sendErr := s.send(protocol.TypeError, err.Error()); sendErr != nil {
			s.logger.Warn("failed to send error event", zap.Error(sendErr))
		}
		return
	}

	go s.runTurn(turnCtx, content)
}

func (s *session) runTurn(ctx context.Context, prompt string) {
	start := time.Now()
	logger := s.logger.With(zap.String("turn_id", id.NewTurnID().String()))
	logger.Info("turn started", zap.Int("prompt_chars", len(prompt)))

	outcome, source := s.serveTurn(ctx, logger, prompt)
	s.endTurn()

	duration := time.Since(start)
	s.h.metrics.RecordTurn(outcome, source, duration)
	logger.Info("turn finished",
		zap.String("outcome", outcome),
		zap.String("source", source),
		zap.Duration("duration", duration),
	)
}

// serveTurn runs a single turn to completion and reports its outcome and the
// source that served it.
func (s *session) serveTurn(ctx context.Context, logger *zap.Logger, prompt string) (string, string) {
	if err := s.send(protocol.TypeThinking, ThinkingText); err != nil {
		return monitoring.OutcomeAbandoned, monitoring.SourceFallback
	}

	if s.h.upstream != nil {
		// Add explicit timeout to prevent indefinite blocking on the model.
		// Derived from the connection context so teardown cancels it.
		upCtx, cancel := context.WithTimeout(ctx, s.h.timeout)
		defer cancel()

		if ut, ok := s.openUpstream(upCtx, logger, prompt); ok {
			return s.relayUpstream(logger, ut), monitoring.SourceUpstream
		}
	}
	return s.relayFallback(ctx, prompt), monitoring.SourceFallback
}

// upstreamTurn carries an opened upstream stream, its first fragment, and the
// breaker slot it holds.
type upstreamTurn struct {
	stream ai.Stream
	first  string
	gen    uint64
}

// openUpstream starts an upstream generation and pulls its first fragment.
// ok=false means the turn falls through to the fallback generator: the
// breaker is open, the stream failed before producing anything, or it
// produced nothing at all. Failures after the first fragment are surfaced to
// the client as error events instead.
func (s *session) openUpstream(ctx context.Context, logger *zap.Logger, prompt string) (*upstreamTurn, bool) {
	gen, err := s.h.breaker.Allow()
	if err != nil {
		logger.Warn("breaker rejected upstream turn", zap.Error(err))
		return nil, false
	}

	stream, err := s.h.upstream.GenerateStream(ctx, prompt)
	if err != nil {
		s.h.breaker.Record(gen, err)
		s.h.metrics.RecordUpstreamCall(false)
		logger.Warn("upstream refused stream", zap.Error(err))
		return nil, false
	}

	first, err := stream.Recv()
	if err != nil {
		stream.Close()
		switch {
		case s.closed():
			// Teardown raced the open. Not an upstream failure.
			s.h.breaker.Record(gen, nil)
		case errors.Is(err, io.EOF):
			s.h.breaker.Record(gen, nil)
			s.h.metrics.RecordUpstreamCall(true)
			logger.Info("upstream returned an empty stream")
		default:
			s.h.breaker.Record(gen, err)
			s.h.metrics.RecordUpstreamCall(false)
			logger.Warn("upstream failed before first fragment", zap.Error(err))
		}
		return nil, false
	}

	return &upstreamTurn{stream: stream, first: first, gen: gen}, true
}

// relayUpstream forwards upstream fragments verbatim. Fragment boundaries are
// preserved; nothing is re-chunked.
func (s *session) relayUpstream(logger *zap.Logger, ut *upstreamTurn) string {
	defer ut.stream.Close()

	if err := s.send(protocol.TypeThinkingDone, ""); err != nil {
		s.h.breaker.Record(ut.gen, nil)
		return monitoring.OutcomeAbandoned
	}
	s.setPhase(phaseStreaming)

	var full strings.Builder
	fragment := ut.first
	for {
		full.WriteString(fragment)
		if err := s.send(protocol.TypeStream, fragment); err != nil {
			s.h.breaker.Record(ut.gen, nil)
			return monitoring.OutcomeAbandoned
		}

		var err error
		fragment, err = ut.stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if s.closed() {
				s.h.breaker.Record(ut.gen, nil)
				return monitoring.OutcomeAbandoned
			}
			s.h.breaker.Record(ut.gen, err)
			s.h.metrics.RecordUpstreamCall(false)
			logger.Warn("upstream failed mid-stream", zap.Error(err))
			if sendErr := s.send(protocol.TypeError, err.Error()); sendErr != nil {
				return monitoring.OutcomeAbandoned
			}
			return monitoring.OutcomeError
		}
	}

	s.h.breaker.Record(ut.gen, nil)
	s.h.metrics.RecordUpstreamCall(true)

	if err := s.send(protocol.TypeDone, full.String()); err != nil {
		return monitoring.OutcomeAbandoned
	}
	return monitoring.OutcomeDone
}

// relayFallback streams a canned reply word by word.
func (s *session) relayFallback(ctx context.Context, prompt string) string {
	s.h.metrics.IncFallback()

	stream := s.h.fallback.Stream(ctx, prompt)
	defer stream.Close()

	if err := s.send(protocol.TypeThinkingDone, ""); err != nil {
		return monitoring.OutcomeAbandoned
	}
	s.setPhase(phaseStreaming)

	var full strings.Builder
	for {
		word, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Only cancellation surfaces here.
			return monitoring.OutcomeAbandoned
		}

		full.WriteString(word)
		if err := s.send(protocol.TypeStream, word); err != nil {
			return monitoring.OutcomeAbandoned
		}
	}

	if err := s.send(protocol.TypeDone, full.String()); err != nil {
		return monitoring.OutcomeAbandoned
	}
	return monitoring.OutcomeDone
}

// beginTurn transitions idle → thinking. ok=false when a turn is already in
// flight.
func (s *session) beginTurn(parent context.Context) (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != phaseIdle {
		return nil, false
	}

	ctx, cancel := context.WithCancel(parent)
	s.phase = phaseThinking
	s.turnCancel = cancel
	return ctx, true
}

// endTurn transitions back to idle and releases the turn context.
func (s *session) endTurn() {
	s.mu.Lock()
	if s.turnCancel != nil {
		s.turnCancel()
		s.turnCancel = nil
	}
	s.phase = phaseIdle
	s.mu.Unlock()
}

func (s *session) setPhase(p phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

func (s *session) currentPhase() phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// closed reports whether the connection is being torn down.
func (s *session) closed() bool {
	return s.connCtx.Err() != nil
}

func (s *session) send(typ protocol.Type, content string) error {
	data, err := protocol.Encode(protocol.Message{Type: typ, Content: content})
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	s.h.metrics.RecordWSMessage("out", string(typ))
	return nil
}
