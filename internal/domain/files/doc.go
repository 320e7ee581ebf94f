// Package files provides read-only access to the served workspace.
//
// All request paths are confined to a single root directory; traversal
// outside it fails with ErrOutsideRoot. The tree walk runs on fastwalk
// with doublestar ignore patterns, type detection uses mimetype, and
// previews decompress gzip, detect charsets, and sanitize HTML before
// reducing it to visible text.
//
// Features:
//   - Parallel workspace tree walk with depth limits
//   - Glob-based ignore patterns (e.g. "**/node_modules/**")
//   - MIME and extension detection
//   - Text/binary content reads with a size cap
//   - Plain-text previews of text, HTML, and gzip files
//
// Example Usage:
//
//	svc, err := files.NewService("/srv/workspace", []string{"**/.git/**"}, 1<<20, logger)
//	entries, err := svc.Tree(ctx, 2)
//	blob, err := svc.Read("docs/readme.md")
package files
