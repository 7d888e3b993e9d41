// Package source abstracts where course documents are listed and fetched from.
package source

import (
	"context"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/models"
)

// Provider is the interface for course document sources.
type Provider interface {
	// List returns every non-trashed file directly inside the configured
	// folder, in the order the backend reports them.
	List(ctx context.Context) ([]models.FileRecord, error)
	// Fetch returns the raw bytes of the file with the given id.
	Fetch(ctx context.Context, id string) ([]byte, error)
	// String names the source for log output.
	String() string
}
