// Package llm implements the Gemini generateContent REST client.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/apperr"
)

// Roles Gemini accepts in conversation contents.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultTimeout = 60 * time.Second

	// maxErrorBody bounds how much of an upstream error body lands in logs.
	maxErrorBody = 4 << 10
)

// Part is one text fragment of a content entry.
type Part struct {
	Text string `json:"text"`
}

// Content is one conversation entry in Gemini wire form.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// UserContent wraps text as a single-part user entry.
func UserContent(text string) Content {
	return Content{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// ModelContent wraps text as a single-part model entry.
func ModelContent(text string) Content {
	return Content{Role: RoleModel, Parts: []Part{{Text: text}}}
}

// NormalizeRole maps client-supplied roles onto the set Gemini accepts:
// assistant means the model in several popular chat APIs, and system
// turns fold into user turns. Unknown roles fold into user as well.
func NormalizeRole(r string) string {
	switch strings.ToLower(strings.TrimSpace(r)) {
	case "model", "assistant":
		return RoleModel
	default:
		return RoleUser
	}
}

// Reply is the usable portion of a generateContent response.
type Reply struct {
	Text         string
	Role         string
	FinishReason string
}

// Config holds the client settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client calls the Gemini generateContent endpoint over REST.
type Client struct {
	hc      *http.Client
	baseURL string
	model   string
	apiKey  string
}

// New creates a Client. The API key and model name are required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: model api key is empty", apperr.ErrConfiguration)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name is empty", apperr.ErrConfiguration)
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		hc:      &http.Client{Timeout: timeout},
		baseURL: baseURL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
	}, nil
}

// Model returns the configured model name, for logs and status output.
func (c *Client) Model() string {
	return c.model
}

type generateRequest struct {
	Contents []Content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// GenerateContent sends the conversation to the model and returns the
// first candidate's text.
func (c *Client) GenerateContent(ctx context.Context, contents []Content) (*Reply, error) {
	body, err := json.Marshal(generateRequest{Contents: contents})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", apperr.ErrModelCall, err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", apperr.ErrModelCall, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrModelCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: status %d: %s",
			apperr.ErrModelCall, resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", apperr.ErrModelCall, err)
	}
	return replyFrom(&gr)
}

// replyFrom distinguishes a safety-blocked empty reply from a plainly
// empty one before extracting the first candidate's text.
func replyFrom(gr *generateResponse) (*Reply, error) {
	if gr.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked: %s", apperr.ErrSafetyBlocked, gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return nil, apperr.ErrEmptyReply
	}
	cand := gr.Candidates[0]
	var text strings.Builder
	for _, p := range cand.Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		if cand.FinishReason == "SAFETY" {
			return nil, fmt.Errorf("%w: candidate finished with SAFETY", apperr.ErrSafetyBlocked)
		}
		return nil, apperr.ErrEmptyReply
	}
	role := cand.Content.Role
	if role == "" {
		role = RoleModel
	}
	return &Reply{Text: text.String(), Role: role, FinishReason: cand.FinishReason}, nil
}
