package http

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gungunsaluja/FileView/internal/ai"
	"github.com/gungunsaluja/FileView/internal/domain/fallback"
	"github.com/gungunsaluja/FileView/internal/domain/files"
	"github.com/gungunsaluja/FileView/internal/infrastructure/logging"
	"github.com/gungunsaluja/FileView/internal/infrastructure/monitoring"
	"github.com/gungunsaluja/FileView/internal/infrastructure/resilience"
	"github.com/gungunsaluja/FileView/internal/shared/utils"
)

// ServiceName and ServiceVersion identify the server in banners and health
// output.
const (
	ServiceName    = "fileview-server"
	ServiceVersion = "0.1.0"
)

// Config wires the handler set's collaborators. Upstream may be nil; one-shot
// generation is then served by the fallback generator. Metrics must be
// non-nil.
type Config struct {
	Files    *files.Service
	Upstream ai.Generator
	Fallback *fallback.Generator
	Breaker  *resilience.Breaker
	Metrics  *monitoring.Metrics
	Logger   *logging.Logger
	Model    string
	Timeout  time.Duration
}

// Handlers contains all HTTP handlers
type Handlers struct {
	files    *files.Service
	upstream ai.Generator
	fallback *fallback.Generator
	breaker  *resilience.Breaker
	metrics  *monitoring.Metrics
	hm       *HandlerMetrics
	hasher   *utils.Hasher
	logger   *logging.Logger
	model    string
	timeout  time.Duration
}

// NewHandlers creates a new handler set
func NewHandlers(cfg Config) *Handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
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
	return &Handlers{
		files:    cfg.Files,
		upstream: cfg.Upstream,
		fallback: fb,
		breaker:  breaker,
		metrics:  cfg.Metrics,
		hm:       NewHandlerMetrics(cfg.Metrics),
		hasher:   utils.DefaultHasher(),
		logger:   logger,
		model:    cfg.Model,
		timeout:  timeout,
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": ServiceName,
		"version": ServiceVersion,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	aiHealth := gin.H{"enabled": h.upstream != nil}
	if h.upstream != nil {
		aiHealth["model"] = h.model
		aiHealth["breaker"] = h.breaker.State().String()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   ServiceName,
		"version":   ServiceVersion,
		"ai":        aiHealth,
		"workspace": gin.H{"root": h.files.Root()},
	})
}

// ListFiles returns the workspace tree
func (h *Handlers) ListFiles(c *gin.Context) {
	defer h.hm.TrackFilesOperation("tree")()

	depth := 0
	if raw := c.Query("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "depth must be a non-negative integer"})
			return
		}
		depth = parsed
	}

	entries, err := h.files.Tree(c.Request.Context(), depth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"root":    h.files.Root(),
		"entries": entries,
		"count":   len(entries),
	})
}

// StatFile returns metadata for one path
func (h *Handlers) StatFile(c *gin.Context) {
	defer h.hm.TrackFilesOperation("stat")()

	rel := c.Query("path")
	if rel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	info, err := h.files.Stat(rel)
	if err != nil {
		c.JSON(fileStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, info)
}

// ReadFile returns the contents of one file
func (h *Handlers) ReadFile(c *gin.Context) {
	defer h.hm.TrackFilesOperation("content")()

	rel := c.Query("path")
	if rel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	blob, err := h.files.Read(rel)
	if err != nil {
		c.JSON(fileStatus(err), gin.H{"error": err.Error()})
		return
	}

	sum := h.hasher.HashString(blob.Content)
	etag := `"` + sum + `"`
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Header("ETag", etag)

	h.logger.Debug("serving file",
		zap.String("path", blob.Path),
		zap.String("etag", utils.ShortHash(sum)),
	)

	c.JSON(http.StatusOK, blob)
}

// PreviewFile returns a text summary of one file
func (h *Handlers) PreviewFile(c *gin.Context) {
	defer h.hm.TrackFilesOperation("preview")()

	rel := c.Query("path")
	if rel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	maxLen := files.DefaultPreviewLength
	if raw := c.Query("length"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "length must be a positive integer"})
			return
		}
		maxLen = parsed
	}

	summary, err := h.files.Preview(rel, maxLen)
	if err != nil {
		c.JSON(fileStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GenerateRequest is the payload for one-shot generation.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// Generate produces a complete reply without streaming
func (h *Handlers) Generate(c *gin.Context) {
	defer h.hm.TrackChatOperation("generate")()

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Validate message
	if err := utils.ValidateMessage(req.Prompt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Add explicit timeout to prevent indefinite blocking on the model.
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	reply, source := h.generate(ctx, req.Prompt)
	c.JSON(http.StatusOK, gin.H{
		"reply":  reply,
		"source": source,
	})
}

// generate tries the upstream behind its breaker, falling back to the canned
// generator.
func (h *Handlers) generate(ctx context.Context, prompt string) (string, string) {
	if h.upstream != nil {
		if gen, err := h.breaker.Allow(); err != nil {
			h.logger.Warn("breaker rejected generate", zap.Error(err))
		} else {
			reply, callErr := h.upstream.Generate(ctx, prompt)
			h.breaker.Record(gen, callErr)
			h.metrics.RecordUpstreamCall(callErr == nil)
			if callErr == nil {
				return reply, monitoring.SourceUpstream
			}
			h.logger.Warn("upstream generate failed", zap.Error(callErr))
		}
	}

	h.metrics.IncFallback()
	return h.fallback.Reply(prompt), monitoring.SourceFallback
}

// fileStatus maps workspace service errors onto HTTP status codes.
func fileStatus(err error) int {
	switch {
	case errors.Is(err, files.ErrOutsideRoot):
		return http.StatusBadRequest
	case errors.Is(err, files.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
