package files

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/gungunsaluja/FileView/internal/infrastructure/logging"
)

var (
	// ErrOutsideRoot is returned for paths that escape the workspace root.
	ErrOutsideRoot = errors.New("path outside workspace root")
	// ErrTooLarge is returned when a file exceeds the configured size limit.
	ErrTooLarge = errors.New("file exceeds size limit")
)

// Entry describes one node in the workspace tree.
type Entry struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	IsDir    bool   `json:"is_dir"`
	Size     int64  `json:"size"`
	Modified int64  `json:"modified"`
}

// Info extends Entry with detected type information.
type Info struct {
	Entry
	MIME      string `json:"mime,omitempty"`
	Extension string `json:"extension,omitempty"`
}

// Blob carries file contents. Binary files are base64-encoded.
type Blob struct {
	Path    string `json:"path"`
	MIME    string `json:"mime,omitempty"`
	Size    int64  `json:"size"`
	Binary  bool   `json:"binary"`
	Content string `json:"content"`
}

// Service exposes read-only access to a single workspace directory. Every
// request path is confined to the root.
type Service struct {
	root      string
	ignore    []string
	maxBytes  int64
	logger    *logging.Logger
	sanitizer *bluemonday.Policy
}

// NewService creates a workspace service rooted at root. Ignore patterns
// use doublestar glob syntax (e.g. "**/node_modules/**").
func NewService(root string, ignore []string, maxBytes int64, logger *logging.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root %s: %w", abs, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", abs)
	}

	return &Service{
		root:      abs,
		ignore:    ignore,
		maxBytes:  maxBytes,
		logger:    logger,
		sanitizer: bluemonday.UGCPolicy(),
	}, nil
}

// Root returns the absolute workspace root.
func (s *Service) Root() string {
	return s.root
}

// Tree walks the workspace using fastwalk and returns entries up to
// maxDepth levels deep. Depth 0 means unlimited. Output is sorted by path.
func (s *Service) Tree(ctx context.Context, maxDepth int) ([]Entry, error) {
	var mu sync.Mutex
	entries := []Entry{}

	conf := fastwalk.Config{
		Follow: false,
	}

	err := fastwalk.Walk(&conf, s.root, func(path string, d os.DirEntry, err error) error {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // Skip errors
		}

		relPath, rerr := filepath.Rel(s.root, path)
		if rerr != nil || relPath == "." {
			return nil
		}

		if d.IsDir() && s.skipDir(relPath) {
			return filepath.SkipDir
		}
		if s.ignored(relPath) {
			return nil
		}

		depth := len(strings.Split(relPath, string(os.PathSeparator))) - 1
		if maxDepth > 0 && depth > maxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, ierr := d.Info()
		if ierr != nil {
			return nil
		}

		mu.Lock()
		entries = append(entries, Entry{
			Path:     filepath.ToSlash(relPath),
			Name:     d.Name(),
			IsDir:    d.IsDir(),
			Size:     info.Size(),
			Modified: info.ModTime().Unix(),
		})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk workspace: %w", err)
	}

	// fastwalk visits concurrently, so impose a stable order
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return entries, nil
}

// Stat returns metadata for one path, with MIME detection for files.
func (s *Service) Stat(rel string) (Info, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return Info{}, err
	}

	fi, err := os.Stat(full)
	if err != nil {
		return Info{}, fmt.Errorf("stat %s: %w", rel, err)
	}

	info := Info{Entry: Entry{
		Path:     s.relFromRoot(full),
		Name:     fi.Name(),
		IsDir:    fi.IsDir(),
		Size:     fi.Size(),
		Modified: fi.ModTime().Unix(),
	}}

	if !fi.IsDir() {
		if mtype, merr := mimetype.DetectFile(full); merr == nil {
			info.MIME = mtype.String()
			info.Extension = mtype.Extension()
		}
	}

	return info, nil
}

// Read returns the contents of one file. Text is returned verbatim; binary
// data is base64-encoded and flagged.
func (s *Service) Read(rel string) (Blob, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return Blob{}, err
	}

	fi, err := os.Stat(full)
	if err != nil {
		return Blob{}, fmt.Errorf("stat %s: %w", rel, err)
	}
	if fi.IsDir() {
		return Blob{}, fmt.Errorf("read %s: is a directory", rel)
	}
	if s.maxBytes > 0 && fi.Size() > s.maxBytes {
		return Blob{}, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrTooLarge, rel, fi.Size(), s.maxBytes)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return Blob{}, fmt.Errorf("read %s: %w", rel, err)
	}

	blob := Blob{
		Path: s.relFromRoot(full),
		Size: fi.Size(),
		MIME: mimetype.Detect(data).String(),
	}

	if utf8.Valid(data) && !hasNUL(data) {
		blob.Content = string(data)
	} else {
		blob.Binary = true
		blob.Content = base64.StdEncoding.EncodeToString(data)
	}

	s.logger.Debug("read file",
		zap.String("path", blob.Path),
		zap.Int64("size", blob.Size),
		zap.Bool("binary", blob.Binary))

	return blob, nil
}

// resolve maps a request path onto the workspace and confines it to the
// root. Absolute paths and traversal outside the root are rejected.
func (s *Service) resolve(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}

	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}

	return filepath.Join(s.root, cleaned), nil
}

func (s *Service) relFromRoot(full string) string {
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." {
		return "."
	}
	return filepath.ToSlash(rel)
}

// ignored reports whether a relative path matches an ignore pattern.
func (s *Service) ignored(rel string) bool {
	p := filepath.ToSlash(rel)
	for _, pattern := range s.ignore {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

// skipDir reports whether a directory should be pruned entirely. A pattern
// like "**/.git/**" prunes the ".git" directory itself, not just its
// children.
func (s *Service) skipDir(rel string) bool {
	p := filepath.ToSlash(rel)
	for _, pattern := range s.ignore {
		base := strings.TrimSuffix(pattern, "/**")
		if ok, _ := doublestar.Match(base, p); ok {
			return true
		}
	}
	return false
}

func hasNUL(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return true
		}
	}
	return false
}
