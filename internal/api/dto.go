package api

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/history"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/llm"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/models"
)

// askRequest is the request body for POST /api/ask. Exactly one of the two
// variants must be present: UserQuestion for a single-turn question, or
// ChatHistory for a multi-turn conversation.
type askRequest struct {
	UserQuestion string            `json:"userQuestion"`
	ChatHistory  []models.ChatTurn `json:"chatHistory"`
}

// Validate enforces the one-of-two shape and checks each chat turn.
func (r askRequest) Validate() error {
	hasQuestion := strings.TrimSpace(r.UserQuestion) != ""
	hasChat := len(r.ChatHistory) > 0
	if hasQuestion && hasChat {
		return errors.New("userQuestion and chatHistory are mutually exclusive")
	}
	if !hasQuestion && !hasChat {
		return errors.New("either userQuestion or chatHistory is required")
	}
	if hasQuestion {
		return nil
	}
	return validation.Validate(r.ChatHistory, validation.Each(validation.By(validTurn)))
}

func validTurn(value interface{}) error {
	turn, ok := value.(models.ChatTurn)
	if !ok {
		return errors.New("must be a chat turn")
	}
	return validation.ValidateStruct(&turn,
		validation.Field(&turn.Role, validation.Required, validation.In("user", "model", "assistant")),
		validation.Field(&turn.Parts, validation.Required),
	)
}

// askResponse keeps the upstream model's response nesting so clients read the
// answer at candidates[0].content.parts[0].text.
type askResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content llm.Content `json:"content"`
}

func replyResponse(reply *llm.Reply) askResponse {
	role := reply.Role
	if role == "" {
		role = llm.RoleModel
	}
	return askResponse{Candidates: []candidate{{
		Content: llm.Content{Role: role, Parts: []llm.Part{{Text: reply.Text}}},
	}}}
}

// historyResponse wraps recent exchanges.
type historyResponse struct {
	Exchanges []history.Exchange `json:"exchanges"`
}
