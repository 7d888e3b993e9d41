package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/models"
)

var _ Provider = (*FS)(nil)

// FS implements Provider backed by a local directory, intended for
// development. File ids are names inside the directory; listing is
// non-recursive, matching the Drive folder semantics.
type FS struct {
	root string // absolute path to the document directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("source: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("source: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute document directory, for the change watcher.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a file id against the root and rejects any result
// that escapes it (directory traversal).
func (f *FS) safePath(id string) (string, error) {
	cleaned := filepath.Clean(id)
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("source: empty file id")
	}
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("source: absolute paths not allowed: %s", id)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("source: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("source: path escapes document root: %s", id)
	}
	return abs, nil
}

// List returns the regular files directly inside the root, media types
// derived from their extensions. Hidden files are skipped.
func (f *FS) List(_ context.Context) ([]models.FileRecord, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("source: list: %w", err)
	}
	var out []models.FileRecord
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, models.FileRecord{
			ID:        e.Name(),
			Name:      e.Name(),
			MediaType: mediaTypeFor(e.Name()),
		})
	}
	return out, nil
}

// Fetch returns the raw bytes of a document file.
func (f *FS) Fetch(_ context.Context, id string) ([]byte, error) {
	abs, err := f.safePath(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", id, err)
	}
	return data, nil
}

func (f *FS) String() string {
	return "local:" + f.root
}

func mediaTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return models.MediaPDF
	case ".docx":
		return models.MediaDocx
	case ".pptx":
		return models.MediaPptx
	case ".txt":
		return models.MediaPlainText
	case ".md", ".markdown":
		return models.MediaMarkdown
	default:
		return "application/octet-stream"
	}
}
