// Package answer builds grounded model requests and maps replies into
// the service's response shape.
package answer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/apperr"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/checksum"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/history"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/knowledge"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/llm"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/models"
)

// FallbackSentence is the exact reply the model is instructed to give
// when the course materials do not contain the answer. It passes through
// the service untouched.
const FallbackSentence = "I'm sorry, I can't find that information in the course materials."

// Model is the slice of the LLM client the service depends on.
type Model interface {
	GenerateContent(ctx context.Context, contents []llm.Content) (*llm.Reply, error)
}

// Service answers course questions grounded in the cached knowledge
// document. It holds no conversation state: chat callers resubmit their
// full history on every request.
type Service struct {
	cache  *knowledge.Cache
	model  Model
	log    history.Log // optional; recording is best-effort
	logger *slog.Logger
}

// NewService creates a Service. log may be nil to disable recording.
func NewService(cache *knowledge.Cache, model Model, log history.Log, logger *slog.Logger) *Service {
	return &Service{cache: cache, model: model, log: log, logger: logger}
}

// Ask answers a single question.
func (s *Service) Ask(ctx context.Context, question string) (*llm.Reply, error) {
	text, err := s.knowledgeText(ctx)
	if err != nil {
		return nil, err
	}
	prompt := instructionFor(text) + "\n\nStudent question: " + question
	reply, err := s.model.GenerateContent(ctx, []llm.Content{llm.UserContent(prompt)})
	if err != nil {
		return nil, err
	}
	s.record(history.ModeQuestion, question, reply.Text)
	return reply, nil
}

// Chat answers the latest turn of a client-held conversation. The
// instruction is prepended as the first user turn, followed by the full
// client-supplied history with roles normalised for the model API.
func (s *Service) Chat(ctx context.Context, turns []models.ChatTurn) (*llm.Reply, error) {
	text, err := s.knowledgeText(ctx)
	if err != nil {
		return nil, err
	}
	contents := make([]llm.Content, 0, len(turns)+1)
	contents = append(contents, llm.UserContent(instructionFor(text)))
	for _, turn := range turns {
		parts := make([]llm.Part, len(turn.Parts))
		for i, p := range turn.Parts {
			parts[i] = llm.Part{Text: p.Text}
		}
		contents = append(contents, llm.Content{Role: llm.NormalizeRole(turn.Role), Parts: parts})
	}
	reply, err := s.model.GenerateContent(ctx, contents)
	if err != nil {
		return nil, err
	}
	s.record(history.ModeChat, lastUserText(turns), reply.Text)
	return reply, nil
}

// Status describes the current knowledge document without refreshing it.
type Status struct {
	Ready       bool      `json:"ready"`
	FetchedAt   time.Time `json:"fetchedAt,omitempty"`
	Checksum    string    `json:"checksum,omitempty"`
	Bytes       int       `json:"bytes"`
	Files       int       `json:"files"`
	Failed      int       `json:"failed"`
	Unsupported int       `json:"unsupported"`
}

// Status reports on the cached knowledge document. A zero Status means
// no document has been built yet.
func (s *Service) Status() Status {
	doc, ok := s.cache.Current()
	if !ok {
		return Status{}
	}
	return Status{
		Ready:       true,
		FetchedAt:   doc.FetchedAt,
		Checksum:    doc.Checksum,
		Bytes:       len(doc.Text),
		Files:       doc.Files,
		Failed:      doc.Failed,
		Unsupported: doc.Unsupported,
	}
}

// Refresh discards the cached document, rebuilds it immediately, and
// reports the result.
func (s *Service) Refresh(ctx context.Context) (Status, error) {
	s.cache.Invalidate()
	if _, err := s.cache.Get(ctx); err != nil {
		return Status{}, err
	}
	return s.Status(), nil
}

// Knowledge returns the current knowledge document, building it first if
// needed. Exposed for the MCP resource surface.
func (s *Service) Knowledge(ctx context.Context) (*knowledge.Document, error) {
	return s.cache.Get(ctx)
}

// knowledgeText fetches the cached document and rejects one with nothing
// to ground an answer in: no files, or placeholders only.
func (s *Service) knowledgeText(ctx context.Context) (string, error) {
	doc, err := s.cache.Get(ctx)
	if err != nil {
		return "", err
	}
	if doc.Files == 0 || doc.Failed+doc.Unsupported >= doc.Files || strings.TrimSpace(doc.Text) == "" {
		return "", apperr.ErrEmptyKnowledge
	}
	return doc.Text, nil
}

// record appends to the exchange log; failures are logged, never returned.
func (s *Service) record(mode, question, answerText string) {
	if s.log == nil {
		return
	}
	err := s.log.Record(history.Exchange{
		Mode:         mode,
		Question:     question,
		QuestionHash: checksum.SumString(question),
		Answer:       answerText,
	})
	if err != nil {
		s.logger.Warn("answer: history record failed", slog.String("error", err.Error()))
	}
}

// instructionFor embeds the knowledge text verbatim in the grounding
// instruction the model sees first.
func instructionFor(knowledgeText string) string {
	var b strings.Builder
	b.WriteString("You are the assistant for this course. Answer student questions using only the course materials below. Do not draw on outside knowledge. If the materials do not contain the answer, reply with exactly this sentence: ")
	b.WriteString(FallbackSentence)
	b.WriteString("\n\n--- COURSE MATERIALS ---\n")
	b.WriteString(knowledgeText)
	b.WriteString("\n--- END OF COURSE MATERIALS ---")
	return b.String()
}

// lastUserText returns the text of the most recent user turn, for the
// exchange log.
func lastUserText(turns []models.ChatTurn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if llm.NormalizeRole(turns[i].Role) == llm.RoleUser {
			return turns[i].Text()
		}
	}
	return ""
}
