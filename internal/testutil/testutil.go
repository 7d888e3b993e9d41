// Package testutil provides shared test helpers: a scripted document
// source, a scripted Gemini endpoint, and a temporary history store.
package testutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/history"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/models"
)

// FakeSource is a scripted document source for tests.
type FakeSource struct {
	Files    []models.FileRecord
	Data     map[string][]byte
	ListErr  error
	FetchErr map[string]error

	mu      sync.Mutex
	lists   int
	fetched []string
}

// List returns the scripted files, or ListErr when set.
func (s *FakeSource) List(_ context.Context) ([]models.FileRecord, error) {
	s.mu.Lock()
	s.lists++
	s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.Files, nil
}

// Fetch returns the scripted bytes for id, or the scripted error.
func (s *FakeSource) Fetch(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, id)
	s.mu.Unlock()
	if err := s.FetchErr[id]; err != nil {
		return nil, err
	}
	data, ok := s.Data[id]
	if !ok {
		return nil, fmt.Errorf("fake source: no data for %s", id)
	}
	return data, nil
}

func (s *FakeSource) String() string { return "fake" }

// ListCalls reports how many times List ran.
func (s *FakeSource) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

// Fetched reports the ids passed to Fetch, in call order.
func (s *FakeSource) Fetched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fetched...)
}

// ModelCall records one request received by ModelServer.
type ModelCall struct {
	Path  string
	Query url.Values
	Body  []byte
}

// ModelServer is a scripted stand-in for the Gemini generateContent
// endpoint. By default it answers every call with a single candidate
// carrying Reply; set RawBody or Status to script failure shapes.
type ModelServer struct {
	*httptest.Server

	mu      sync.Mutex
	calls   []ModelCall
	status  int
	reply   string
	rawBody string
}

// NewModelServer starts a scripted model endpoint answering with reply.
// The server is shut down with the test.
func NewModelServer(t *testing.T, reply string) *ModelServer {
	t.Helper()
	m := &ModelServer{reply: reply}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Server.Close)
	return m
}

// Script replaces the response: a non-zero status and, when raw is not
// empty, a verbatim body.
func (m *ModelServer) Script(status int, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.rawBody = raw
}

// Calls returns the recorded requests.
func (m *ModelServer) Calls() []ModelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ModelCall(nil), m.calls...)
}

func (m *ModelServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	m.mu.Lock()
	m.calls = append(m.calls, ModelCall{Path: r.URL.Path, Query: r.URL.Query(), Body: body})
	status, raw, reply := m.status, m.rawBody, m.reply
	m.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if raw != "" {
		_, _ = io.WriteString(w, raw)
		return
	}
	fmt.Fprintf(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":%s}]},"finishReason":"STOP"}]}`,
		strconv.Quote(reply))
}

// TestHistory creates a temporary history store that is closed and
// removed with the test.
func TestHistory(t *testing.T) *history.DB {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
