// Package knowledge builds and caches the aggregated course document that
// grounds every answer.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/apperr"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/checksum"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/extract"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/models"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/source"
)

// segmentSeparator joins per-file segments in the aggregated document.
const segmentSeparator = "\n\n---\n\n"

// fetchConcurrency bounds the per-file fan-out.
const fetchConcurrency = 8

// Document is one immutable build of the knowledge base.
type Document struct {
	Text      string
	Checksum  string
	FetchedAt time.Time

	// Aggregation counters, for the status surface and logs.
	Files       int
	Failed      int
	Unsupported int
}

// Aggregator concatenates the extracted text of every file in the source
// folder into one document.
type Aggregator struct {
	src    source.Provider
	logger *slog.Logger
}

// NewAggregator creates an Aggregator over the given source.
func NewAggregator(src source.Provider, logger *slog.Logger) *Aggregator {
	return &Aggregator{src: src, logger: logger}
}

type segment struct {
	text        string
	failed      bool
	unsupported bool
}

// Build aggregates the source folder into a Document. A listing failure
// aborts the build. A fetch or extraction failure for a single file
// degrades that file to an error placeholder and leaves the rest intact.
// Segments keep the listing order regardless of fetch completion order.
func (a *Aggregator) Build(ctx context.Context) (*Document, error) {
	files, err := a.src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpstreamFetch, err)
	}

	segs := make([]segment, len(files))
	var g errgroup.Group
	g.SetLimit(fetchConcurrency)
	for i, f := range files {
		g.Go(func() error {
			segs[i] = a.buildSegment(ctx, f)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	// A cancelled build must not masquerade as a document of placeholders.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &Document{Files: len(files)}
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.text
		if s.failed {
			doc.Failed++
		}
		if s.unsupported {
			doc.Unsupported++
		}
	}
	doc.Text = strings.Join(parts, segmentSeparator)
	doc.Checksum = checksum.Sum([]byte(doc.Text))

	a.logger.Info("knowledge: aggregated",
		slog.String("source", a.src.String()),
		slog.Int("files", doc.Files),
		slog.Int("failed", doc.Failed),
		slog.Int("unsupported", doc.Unsupported),
		slog.Int("bytes", len(doc.Text)))
	return doc, nil
}

func (a *Aggregator) buildSegment(ctx context.Context, f models.FileRecord) segment {
	if f.Kind() == models.KindUnsupported {
		a.logger.Debug("knowledge: unsupported media type",
			slog.String("file", f.Name), slog.String("media_type", f.MediaType))
		return segment{text: segmentFor(f.Name, extract.PlaceholderUnsupported), unsupported: true}
	}
	data, err := a.src.Fetch(ctx, f.ID)
	if err != nil {
		a.logger.Warn("knowledge: fetch failed",
			slog.String("file", f.Name), slog.String("error", err.Error()))
		return segment{text: segmentFor(f.Name, errorPlaceholder(f.Name)), failed: true}
	}
	text, err := extract.Text(data, f.MediaType)
	if err != nil {
		a.logger.Warn("knowledge: extract failed",
			slog.String("file", f.Name), slog.String("error", err.Error()))
		return segment{text: segmentFor(f.Name, errorPlaceholder(f.Name)), failed: true}
	}
	return segment{text: segmentFor(f.Name, text)}
}

func segmentFor(name, text string) string {
	return fmt.Sprintf("[Content from file: %s]\n%s", name, text)
}

func errorPlaceholder(name string) string {
	return fmt.Sprintf("[Error reading file: %s]", name)
}
