// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the course assistant over stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/answer"
)

// Server wraps the MCP server with the course assistant tools.
type Server struct {
	mcp *server.MCPServer
	svc *answer.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *answer.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Course Guide",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("ask_course_question",
		mcp.WithDescription("Answer a question using only the course materials. "+
			"Returns the assistant's reply, or a fixed fallback sentence when the "+
			"materials do not cover the question."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The student's question")),
	), s.askCourseQuestion)

	s.mcp.AddTool(mcp.NewTool("refresh_knowledge",
		mcp.WithDescription("Discard the cached course materials and rebuild them "+
			"from the document source."),
	), s.refreshKnowledge)

	s.mcp.AddTool(mcp.NewTool("knowledge_status",
		mcp.WithDescription("Report the state of the cached course materials: "+
			"readiness, file counts, size, and checksum."),
	), s.knowledgeStatus)

	// Resource: the aggregated course materials.
	s.mcp.AddResource(
		mcp.NewResource("courses://knowledge", "Course Materials",
			mcp.WithResourceDescription("The aggregated text of every document in the course folder."),
			mcp.WithMIMEType("text/plain"),
		),
		s.readKnowledgeResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) askCourseQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reply, err := s.svc.Ask(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(reply.Text), nil
}

func (s *Server) refreshKnowledge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.svc.Refresh(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("refreshed: %d files, %d bytes", st.Files, st.Bytes)), nil
}

func (s *Server) knowledgeStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.svc.Status(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readKnowledgeResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc, err := s.svc.Knowledge(ctx)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "courses://knowledge",
			MIMEType: "text/plain",
			Text:     doc.Text,
		},
	}, nil
}
