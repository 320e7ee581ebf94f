package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gungunsaluja/FileView/internal/ai"
	"github.com/gungunsaluja/FileView/internal/domain/fallback"
	"github.com/gungunsaluja/FileView/internal/domain/files"
	"github.com/gungunsaluja/FileView/internal/infrastructure/logging"
	"github.com/gungunsaluja/FileView/internal/infrastructure/monitoring"
)

// Shared across the package: promauto registers on the global registry, so
// the collector set must be created once per test binary.
var testMetrics = monitoring.NewMetrics()

const guideText = "hello from the guide"

// fakeGenerator serves scripted one-shot replies.
type fakeGenerator struct {
	reply string
	err   error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *fakeGenerator) GenerateStream(ctx context.Context, prompt string) (ai.Stream, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &fakeStream{reply: g.reply}, nil
}

type fakeStream struct {
	reply string
	done  bool
}

func (s *fakeStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	s.done = true
	return s.reply, nil
}

func (s *fakeStream) Close() {}

func newTestRouter(t *testing.T, upstream ai.Generator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.md"), []byte("# Workspace\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "guide.txt"), []byte(guideText), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "notes", "deep.txt"), []byte("nested"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "huge.log"), bytes.Repeat([]byte("x"), 2048), 0o644))

	svc, err := files.NewService(root, nil, 1024, logging.NewNop())
	require.NoError(t, err)

	handlers := NewHandlers(Config{
		Files:    svc,
		Upstream: upstream,
		Fallback: fallback.New(fallback.Config{}),
		Metrics:  testMetrics,
		Model:    "test-model",
	})

	router := gin.New()
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/api/files", handlers.ListFiles)
	router.GET("/api/files/stat", handlers.StatFile)
	router.GET("/api/files/content", handlers.ReadFile)
	router.GET("/api/files/preview", handlers.PreviewFile)
	router.POST("/api/generate", handlers.Generate)
	router.GET("/metrics/json", handlers.MetricsJSON)
	return router
}

func doRequest(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), out))
}

func TestRootBanner(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	decodeBody(t, w, &body)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, ServiceName, body["service"])
	assert.Equal(t, ServiceVersion, body["version"])
}

func TestHealthWithoutUpstream(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status    string         `json:"status"`
		AI        map[string]any `json:"ai"`
		Workspace map[string]any `json:"workspace"`
	}
	decodeBody(t, w, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, false, body.AI["enabled"])
	assert.NotContains(t, body.AI, "model")
	assert.NotEmpty(t, body.Workspace["root"])
}

func TestHealthWithUpstream(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{reply: "ok"})

	w := doRequest(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		AI map[string]any `json:"ai"`
	}
	decodeBody(t, w, &body)
	assert.Equal(t, true, body.AI["enabled"])
	assert.Equal(t, "test-model", body.AI["model"])
	assert.Equal(t, "closed", body.AI["breaker"])
}

func TestListFiles(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/files", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Root    string        `json:"root"`
		Entries []files.Entry `json:"entries"`
		Count   int           `json:"count"`
	}
	decodeBody(t, w, &body)
	assert.NotEmpty(t, body.Root)
	assert.Equal(t, len(body.Entries), body.Count)

	paths := make([]string, 0, len(body.Entries))
	for _, e := range body.Entries {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "readme.md")
	assert.Contains(t, paths, "docs/guide.txt")
	assert.Contains(t, paths, "docs/notes/deep.txt")
}

func TestListFilesDepth(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/files?depth=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Entries []files.Entry `json:"entries"`
	}
	decodeBody(t, w, &body)

	paths := make([]string, 0, len(body.Entries))
	for _, e := range body.Entries {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "docs/guide.txt")
	assert.NotContains(t, paths, "docs/notes/deep.txt")
}

func TestListFilesBadDepth(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, raw := range []string{"-1", "two"} {
		w := doRequest(router, http.MethodGet, "/api/files?depth="+raw, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "depth=%s", raw)
	}
}

func TestStatFile(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/files/stat?path=docs/guide.txt", "")
	require.Equal(t, http.StatusOK, w.Code)

	var info files.Info
	decodeBody(t, w, &info)
	assert.Equal(t, "guide.txt", info.Name)
	assert.Equal(t, int64(len(guideText)), info.Size)
	assert.False(t, info.IsDir)
	assert.Contains(t, info.MIME, "text/plain")
}

func TestStatFileErrors(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"missing param", "/api/files/stat", http.StatusBadRequest},
		{"not found", "/api/files/stat?path=ghost.txt", http.StatusNotFound},
		{"traversal", "/api/files/stat?path=../escape.txt", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestReadFile(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/files/content?path=docs/guide.txt", "")
	require.Equal(t, http.StatusOK, w.Code)

	var blob files.Blob
	decodeBody(t, w, &blob)
	assert.Equal(t, guideText, blob.Content)
	assert.False(t, blob.Binary)

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.True(t, strings.HasPrefix(etag, `"`))
	assert.True(t, strings.HasSuffix(etag, `"`))
}

func TestReadFileNotModified(t *testing.T) {
	router := newTestRouter(t, nil)

	first := doRequest(router, http.MethodGet, "/api/files/content?path=readme.md", "")
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/files/content?path=readme.md", nil)
	req.Header.Set("If-None-Match", etag)
	second := httptest.NewRecorder()
	router.ServeHTTP(second, req)

	assert.Equal(t, http.StatusNotModified, second.Code)
	assert.Empty(t, second.Body.String())
}

func TestReadFileTooLarge(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/files/content?path=huge.log", "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestPreviewFile(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/files/preview?path=docs/guide.txt", "")
	require.Equal(t, http.StatusOK, w.Code)

	var summary files.Summary
	decodeBody(t, w, &summary)
	assert.Equal(t, guideText, summary.Text)
	assert.False(t, summary.Truncated)
}

func TestPreviewFileTruncated(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/files/preview?path=docs/guide.txt&length=5", "")
	require.Equal(t, http.StatusOK, w.Code)

	var summary files.Summary
	decodeBody(t, w, &summary)
	assert.True(t, summary.Truncated)
	assert.Len(t, summary.Text, 5)
}

func TestPreviewFileBadLength(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/files/preview?path=readme.md&length=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateFallback(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/api/generate", `{"prompt":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Reply  string `json:"reply"`
		Source string `json:"source"`
	}
	decodeBody(t, w, &body)
	assert.Equal(t, monitoring.SourceFallback, body.Source)
	assert.Equal(t, fallback.New(fallback.Config{}).Reply("hello"), body.Reply)
}

func TestGenerateUpstream(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{reply: "All good."})

	w := doRequest(router, http.MethodPost, "/api/generate", `{"prompt":"status?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Reply  string `json:"reply"`
		Source string `json:"source"`
	}
	decodeBody(t, w, &body)
	assert.Equal(t, monitoring.SourceUpstream, body.Source)
	assert.Equal(t, "All good.", body.Reply)
}

func TestGenerateUpstreamFailureFallsBack(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{err: errors.New("quota exhausted")})

	w := doRequest(router, http.MethodPost, "/api/generate", `{"prompt":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Reply  string `json:"reply"`
		Source string `json:"source"`
	}
	decodeBody(t, w, &body)
	assert.Equal(t, monitoring.SourceFallback, body.Source)
	assert.Equal(t, fallback.New(fallback.Config{}).Reply("hello"), body.Reply)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"empty prompt", `{"prompt":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/generate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestMetricsJSON(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{reply: "ok"})

	w := doRequest(router, http.MethodGet, "/metrics/json", "")
	require.Equal(t, http.StatusOK, w.Code)

	var report MetricsReport
	decodeBody(t, w, &report)
	assert.False(t, report.Timestamp.IsZero())
	assert.GreaterOrEqual(t, report.Summary.UptimeSeconds, 0.0)
	assert.True(t, report.Chat.UpstreamEnabled)
	assert.Equal(t, "test-model", report.Chat.UpstreamModel)
	assert.Equal(t, "closed", report.Chat.BreakerState)
}
