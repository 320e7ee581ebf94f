package files

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

const (
	// MaxPreviewSize limits preview input to 10MB to prevent memory exhaustion
	MaxPreviewSize = 10 * 1024 * 1024

	// DefaultPreviewLength is the summary length when the caller passes 0
	DefaultPreviewLength = 512
)

// Summary is a short plain-text rendition of a file.
type Summary struct {
	Path      string `json:"path"`
	MIME      string `json:"mime"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
}

// Preview produces a plain-text summary of a file. Gzip-compressed files
// are decompressed transparently, HTML is sanitized and reduced to its
// visible text, and other text is decoded with charset detection.
func (s *Service) Preview(rel string, maxLen int) (Summary, error) {
	if maxLen <= 0 {
		maxLen = DefaultPreviewLength
	}

	full, err := s.resolve(rel)
	if err != nil {
		return Summary{}, err
	}

	fi, err := os.Stat(full)
	if err != nil {
		return Summary{}, fmt.Errorf("stat %s: %w", rel, err)
	}
	if fi.IsDir() {
		return Summary{}, fmt.Errorf("preview %s: is a directory", rel)
	}

	f, err := os.Open(full)
	if err != nil {
		return Summary{}, fmt.Errorf("open %s: %w", rel, err)
	}
	defer f.Close()

	var reader io.Reader = f
	name := fi.Name()
	if strings.HasSuffix(name, ".gz") || strings.HasSuffix(name, ".tgz") {
		gz, gerr := gzip.NewReader(f)
		if gerr != nil {
			return Summary{}, fmt.Errorf("gzip %s: %w", rel, gerr)
		}
		defer gz.Close()
		reader = gz
		name = strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".tgz")
	}

	data, err := io.ReadAll(io.LimitReader(reader, MaxPreviewSize))
	if err != nil {
		return Summary{}, fmt.Errorf("read %s: %w", rel, err)
	}

	summary := Summary{
		Path: s.relFromRoot(full),
		MIME: mimetype.Detect(data).String(),
	}

	var text string
	if strings.Contains(summary.MIME, "html") || strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".htm") {
		summary.Title, text, err = s.extractHTML(data)
		if err != nil {
			return Summary{}, fmt.Errorf("parse html %s: %w", rel, err)
		}
	} else {
		text = NormalizeWhitespace(decodeText(data))
	}

	if len(text) > maxLen {
		summary.Truncated = true
		text = TruncateText(text, maxLen)
	}
	summary.Text = text

	return summary, nil
}

// extractHTML sanitizes markup and returns the page title and visible body
// text, decoding the input charset first.
func (s *Service) extractHTML(data []byte) (title, text string, err error) {
	detectedCharset := DetectCharset(data)

	utf8Reader, cerr := charset.NewReader(bytes.NewReader(data), detectedCharset)
	var doc *goquery.Document
	if cerr != nil {
		// Fallback to direct parsing
		doc, err = goquery.NewDocumentFromReader(bytes.NewReader(data))
	} else {
		doc, err = goquery.NewDocumentFromReader(utf8Reader)
	}
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	body, berr := doc.Find("body").Html()
	if berr != nil || body == "" {
		text = NormalizeWhitespace(doc.Text())
		return title, text, nil
	}

	sanitized := s.sanitizer.Sanitize(body)
	cleanDoc, derr := goquery.NewDocumentFromReader(strings.NewReader(sanitized))
	if derr != nil {
		text = NormalizeWhitespace(doc.Find("body").Text())
		return title, text, nil
	}

	text = NormalizeWhitespace(cleanDoc.Text())
	return title, text, nil
}

// DetectCharset detects and returns charset from raw bytes
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// decodeText converts raw bytes to UTF-8 using charset detection.
func decodeText(data []byte) string {
	cs := DetectCharset(data)
	if cs == "utf-8" {
		return string(data)
	}

	reader, err := charset.NewReader(bytes.NewReader(data), cs)
	if err != nil {
		return string(data)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// NormalizeWhitespace collapses multiple spaces into one
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateText truncates text to max length with ellipsis
func TruncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
