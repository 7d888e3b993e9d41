package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/answer"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/knowledge"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/llm"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/models"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/testutil"
)

func testServer(t *testing.T, src *testutil.FakeSource, reply string) (*Server, *testutil.ModelServer) {
	t.Helper()

	model := testutil.NewModelServer(t, reply)
	client, err := llm.New(llm.Config{APIKey: "test-key", Model: "gemini-1.5-flash", BaseURL: model.URL})
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg := knowledge.NewAggregator(src, logger)
	cache := knowledge.NewCache(agg.Build, time.Hour)
	svc := answer.NewService(cache, client, nil, logger)
	return New(svc), model
}

func courseSource() *testutil.FakeSource {
	return &testutil.FakeSource{
		Files: []models.FileRecord{
			{ID: "f1", Name: "syllabus.txt", MediaType: models.MediaPlainText},
		},
		Data: map[string][]byte{
			"f1": []byte("The final exam is on May 12."),
		},
	}
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so we invoke the handler
	// functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "ask_course_question":
		result, err = srv.askCourseQuestion(ctx, req)
	case "refresh_knowledge":
		result, err = srv.refreshKnowledge(ctx, req)
	case "knowledge_status":
		result, err = srv.knowledgeStatus(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestAskCourseQuestion(t *testing.T) {
	srv, model := testServer(t, courseSource(), "The final exam is on May 12.")

	r := callTool(t, srv, "ask_course_question", map[string]interface{}{
		"question": "When is the final exam?",
	})
	if r.IsError {
		t.Fatalf("ask errored: %s", resultText(r))
	}
	if got := resultText(r); got != "The final exam is on May 12." {
		t.Errorf("ask result = %q", got)
	}
	if len(model.Calls()) != 1 {
		t.Errorf("model calls = %d, want 1", len(model.Calls()))
	}
}

func TestAskCourseQuestionMissingArg(t *testing.T) {
	srv, model := testServer(t, courseSource(), "irrelevant")

	r := callTool(t, srv, "ask_course_question", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing question")
	}
	if len(model.Calls()) != 0 {
		t.Error("model called without a question")
	}
}

func TestAskCourseQuestionEmptyKnowledge(t *testing.T) {
	srv, _ := testServer(t, &testutil.FakeSource{}, "irrelevant")

	r := callTool(t, srv, "ask_course_question", map[string]interface{}{
		"question": "anything?",
	})
	if !r.IsError {
		t.Error("expected error for empty knowledge base")
	}
}

func TestRefreshKnowledge(t *testing.T) {
	src := courseSource()
	srv, _ := testServer(t, src, "an answer")

	r := callTool(t, srv, "refresh_knowledge", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("refresh errored: %s", resultText(r))
	}
	if got := resultText(r); !strings.Contains(got, "1 files") {
		t.Errorf("refresh result = %q", got)
	}
	if src.ListCalls() != 1 {
		t.Errorf("list calls = %d, want 1", src.ListCalls())
	}
}

func TestKnowledgeStatus(t *testing.T) {
	srv, _ := testServer(t, courseSource(), "an answer")

	r := callTool(t, srv, "knowledge_status", map[string]interface{}{})
	var st struct {
		Ready bool `json:"ready"`
		Files int  `json:"files"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &st); err != nil {
		t.Fatalf("status not JSON: %v", err)
	}
	if st.Ready {
		t.Error("ready before any build")
	}

	callTool(t, srv, "refresh_knowledge", map[string]interface{}{})

	r = callTool(t, srv, "knowledge_status", map[string]interface{}{})
	if err := json.Unmarshal([]byte(resultText(r)), &st); err != nil {
		t.Fatalf("status not JSON: %v", err)
	}
	if !st.Ready || st.Files != 1 {
		t.Errorf("status after refresh = %+v", st)
	}
}

func TestKnowledgeResource(t *testing.T) {
	srv, _ := testServer(t, courseSource(), "an answer")

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "courses://knowledge"
	contents, err := srv.readKnowledgeResource(context.Background(), req)
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] is %T", contents[0])
	}
	if !strings.Contains(tc.Text, "The final exam is on May 12.") {
		t.Errorf("resource text = %q", tc.Text)
	}
	if !strings.Contains(tc.Text, "[Content from file: syllabus.txt]") {
		t.Errorf("resource missing file header: %q", tc.Text)
	}
}
