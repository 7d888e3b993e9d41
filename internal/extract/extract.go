// Package extract turns course documents into plain text for the knowledge base.
package extract

import (
	"github.com/rajatgoel03/courses-guide-chatbot/internal/models"
)

// PlaceholderUnsupported fills the slot of files whose media type has no
// extraction route.
const PlaceholderUnsupported = "[Unsupported file type]"

// Text extracts plain text from data according to its media type. An
// unsupported media type yields the fixed placeholder and no error.
// Malformed documents yield an error the caller is expected to isolate.
func Text(data []byte, mediaType string) (string, error) {
	switch models.KindOf(mediaType) {
	case models.KindPDF:
		return pdfText(data)
	case models.KindDocx:
		return docxText(data)
	case models.KindPptx:
		return pptxText(data)
	case models.KindText:
		return string(data), nil
	default:
		return PlaceholderUnsupported, nil
	}
}
