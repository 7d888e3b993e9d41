package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/apperr"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/testutil"
)

func testClient(t *testing.T, srv *testutil.ModelServer) *Client {
	t.Helper()
	c, err := New(Config{
		APIKey:  "test-key",
		Model:   "gemini-1.5-flash",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestGenerateContent_Success(t *testing.T) {
	srv := testutil.NewModelServer(t, "The course covers Go basics.")
	c := testClient(t, srv)

	reply, err := c.GenerateContent(context.Background(), []Content{UserContent("what is covered?")})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if reply.Text != "The course covers Go basics." {
		t.Errorf("text = %q", reply.Text)
	}
	if reply.Role != RoleModel {
		t.Errorf("role = %q, want %q", reply.Role, RoleModel)
	}

	calls := srv.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	wantPath := "/v1beta/models/gemini-1.5-flash:generateContent"
	if calls[0].Path != wantPath {
		t.Errorf("path = %q, want %q", calls[0].Path, wantPath)
	}
	if got := calls[0].Query.Get("key"); got != "test-key" {
		t.Errorf("key = %q, want test-key", got)
	}

	var req struct {
		Contents []Content `json:"contents"`
	}
	if err := json.Unmarshal(calls[0].Body, &req); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if len(req.Contents) != 1 || req.Contents[0].Role != RoleUser || req.Contents[0].Parts[0].Text != "what is covered?" {
		t.Errorf("request contents = %+v", req.Contents)
	}
}

func TestGenerateContent_UpstreamError(t *testing.T) {
	srv := testutil.NewModelServer(t, "")
	srv.Script(http.StatusInternalServerError, `{"error":{"message":"backend exploded"}}`)
	c := testClient(t, srv)

	_, err := c.GenerateContent(context.Background(), []Content{UserContent("q")})
	if !errors.Is(err, apperr.ErrModelCall) {
		t.Fatalf("error should wrap ErrModelCall, got: %v", err)
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "backend exploded") {
		t.Errorf("error should carry status and body snippet: %v", err)
	}
}

func TestGenerateContent_PromptBlocked(t *testing.T) {
	srv := testutil.NewModelServer(t, "")
	srv.Script(http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	c := testClient(t, srv)

	_, err := c.GenerateContent(context.Background(), []Content{UserContent("q")})
	if !errors.Is(err, apperr.ErrSafetyBlocked) {
		t.Errorf("error should wrap ErrSafetyBlocked, got: %v", err)
	}
}

func TestGenerateContent_SafetyFinishWithoutText(t *testing.T) {
	srv := testutil.NewModelServer(t, "")
	srv.Script(http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[]},"finishReason":"SAFETY"}]}`)
	c := testClient(t, srv)

	_, err := c.GenerateContent(context.Background(), []Content{UserContent("q")})
	if !errors.Is(err, apperr.ErrSafetyBlocked) {
		t.Errorf("error should wrap ErrSafetyBlocked, got: %v", err)
	}
}

func TestGenerateContent_NoCandidates(t *testing.T) {
	srv := testutil.NewModelServer(t, "")
	srv.Script(http.StatusOK, `{"candidates":[]}`)
	c := testClient(t, srv)

	_, err := c.GenerateContent(context.Background(), []Content{UserContent("q")})
	if !errors.Is(err, apperr.ErrEmptyReply) {
		t.Errorf("error should wrap ErrEmptyReply, got: %v", err)
	}
}

func TestGenerateContent_EmptyTextOtherFinish(t *testing.T) {
	srv := testutil.NewModelServer(t, "")
	srv.Script(http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":""}]},"finishReason":"STOP"}]}`)
	c := testClient(t, srv)

	_, err := c.GenerateContent(context.Background(), []Content{UserContent("q")})
	if !errors.Is(err, apperr.ErrEmptyReply) {
		t.Errorf("empty text without safety finish should be ErrEmptyReply, got: %v", err)
	}
	if errors.Is(err, apperr.ErrSafetyBlocked) {
		t.Error("plain empty reply must not read as safety-blocked")
	}
}

func TestNew_RequiresKeyAndModel(t *testing.T) {
	if _, err := New(Config{Model: "m"}); !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("missing key should be ErrConfiguration, got: %v", err)
	}
	if _, err := New(Config{APIKey: "k"}); !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("missing model should be ErrConfiguration, got: %v", err)
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"user", RoleUser},
		{"model", RoleModel},
		{"assistant", RoleModel},
		{"ASSISTANT", RoleModel},
		{"system", RoleUser},
		{"", RoleUser},
	}
	for _, c := range cases {
		if got := NormalizeRole(c.in); got != c.want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
