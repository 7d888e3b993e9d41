// Package models defines the domain types for the courses guide chatbot.
package models

// Media types as reported by the source listing.
const (
	MediaPDF       = "application/pdf"
	MediaDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaPptx      = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MediaPlainText = "text/plain"
	MediaMarkdown  = "text/markdown"
)

// Kind is the extraction route chosen for a media type.
type Kind int

const (
	KindUnsupported Kind = iota
	KindPDF
	KindDocx
	KindPptx
	KindText
)

// FileRecord describes one file in the source folder listing.
type FileRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
}

// Kind classifies the record's media type into an extraction route.
// Unknown types map to KindUnsupported; they still occupy a slot in the
// aggregated document as a placeholder.
func (f FileRecord) Kind() Kind {
	return KindOf(f.MediaType)
}

// KindOf maps a media type string to its extraction route.
func KindOf(mediaType string) Kind {
	switch mediaType {
	case MediaPDF:
		return KindPDF
	case MediaDocx:
		return KindDocx
	case MediaPptx:
		return KindPptx
	case MediaPlainText, MediaMarkdown:
		return KindText
	default:
		return KindUnsupported
	}
}

// ChatPart is one text fragment of a chat turn.
type ChatPart struct {
	Text string `json:"text"`
}

// ChatTurn is a single turn of a client-supplied conversation. Role is
// "user" or "model".
type ChatTurn struct {
	Role  string     `json:"role"`
	Parts []ChatPart `json:"parts"`
}

// Text flattens the turn's parts into one string.
func (t ChatTurn) Text() string {
	switch len(t.Parts) {
	case 0:
		return ""
	case 1:
		return t.Parts[0].Text
	}
	var out string
	for i, p := range t.Parts {
		if i > 0 {
			out += "\n"
		}
		out += p.Text
	}
	return out
}
