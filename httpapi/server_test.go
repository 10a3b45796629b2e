package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tenantwise/steering"
	"github.com/tenantwise/steering/memstore"
	"github.com/tenantwise/steering/types"
)

type scriptedStream struct {
	chunks []types.Chunk
	idx    int
}

func (s *scriptedStream) Next() bool {
	if s.idx >= len(s.chunks) {
		return false
	}
	s.idx++
	return true
}
func (s *scriptedStream) Current() types.Chunk { return s.chunks[s.idx-1] }
func (s *scriptedStream) Err() error           { return nil }
func (s *scriptedStream) Message() *types.Event {
	return types.NewTextEvent(types.RoleModel, "reply")
}

type scriptedModel struct{}

func (scriptedModel) Generate(ctx context.Context, req steering.GenerateRequest) (steering.ModelStream, error) {
	return &scriptedStream{chunks: []types.Chunk{
		types.TextChunk("hello "),
		types.TextChunk("there"),
	}}, nil
}

type nopSummarizer struct{}

func (nopSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	return "summary", nil
}

func newTestServer(t *testing.T) (*Server, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	cfg := steering.Config{Logger: log.New(io.Discard)}
	registry, err := steering.NewRegistry(cfg, st, scriptedModel{}, nopSummarizer{}, nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewServer(registry, log.New(io.Discard)), st
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreateSession(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Routes()

	rec := doJSON(t, h, http.MethodPost, "/api/sessions", map[string]string{
		"app": "crm", "user_id": "alice", "session_id": "s1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body)
	}

	if _, err := st.Get(context.Background(), types.SessionKey{App: "crm", UserID: "alice", SessionID: "s1"}); err != nil {
		t.Fatalf("session not persisted: %v", err)
	}

	// Same key again conflicts.
	rec = doJSON(t, h, http.MethodPost, "/api/sessions", map[string]string{
		"app": "crm", "user_id": "alice", "session_id": "s1",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}

	// Missing app rejected.
	rec = doJSON(t, h, http.MethodPost, "/api/sessions", map[string]string{"user_id": "alice"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing app status = %d, want 400", rec.Code)
	}
}

func TestHandleCreateSession_GeneratesID(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Routes(), http.MethodPost, "/api/sessions", map[string]string{
		"app": "crm", "user_id": "alice",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp struct {
		Data struct {
			Key types.SessionKey `json:"key"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Key.SessionID == "" {
		t.Error("no session_id generated")
	}
}

func TestHandleListSessions(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()
	for _, id := range []string{"s1", "s2"} {
		if _, err := st.Create(ctx, types.SessionKey{App: "crm", UserID: "alice", SessionID: id}); err != nil {
			t.Fatal(err)
		}
	}

	rec := doJSON(t, srv.Routes(), http.MethodGet, "/api/sessions?app=crm&user_id=alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("listed %d sessions, want 2", len(resp.Data))
	}
}

func TestHandleDeleteSession(t *testing.T) {
	srv, st := newTestServer(t)
	key := types.SessionKey{App: "crm", UserID: "alice", SessionID: "s1"}
	if _, err := st.Create(context.Background(), key); err != nil {
		t.Fatal(err)
	}

	body := map[string]string{"app": "crm", "user_id": "alice", "session_id": "s1"}
	rec := doJSON(t, srv.Routes(), http.MethodDelete, "/api/sessions", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	rec = doJSON(t, srv.Routes(), http.MethodDelete, "/api/sessions", body)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestHandleChat_StreamsNDJSON(t *testing.T) {
	srv, st := newTestServer(t)

	rec := doJSON(t, srv.Routes(), http.MethodPost, "/api/chat", map[string]string{
		"app": "crm", "user_id": "alice", "session_id": "s1", "message": "hi",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Content-Type = %q", ct)
	}

	var text strings.Builder
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		var chunk types.Chunk
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			t.Fatalf("invalid NDJSON line %q: %v", scanner.Text(), err)
		}
		if chunk.Type == types.ChunkText {
			text.WriteString(chunk.Content)
		}
	}
	if text.String() != "hello there" {
		t.Errorf("streamed text = %q, want %q", text.String(), "hello there")
	}

	// The turn persisted through the lazily created record.
	sess, err := st.Get(context.Background(), types.SessionKey{App: "crm", UserID: "alice", SessionID: "s1"})
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if len(sess.Events) != 2 {
		t.Errorf("persisted events = %d, want 2", len(sess.Events))
	}
}

func TestHandleCancel(t *testing.T) {
	srv, _ := newTestServer(t)
	body := map[string]string{"app": "crm", "user_id": "alice", "session_id": "s1"}

	rec := doJSON(t, srv.Routes(), http.MethodPost, "/api/cancel", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Data struct {
			Signalled bool `json:"signalled"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Signalled {
		t.Error("cancel for unknown identity reported a signal")
	}
}

func TestHandleHistory_HTML(t *testing.T) {
	srv, st := newTestServer(t)
	key := types.SessionKey{App: "crm", UserID: "alice", SessionID: "s1"}
	sess, err := st.Create(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	sess.Events = append(sess.Events,
		types.NewTextEvent(types.RoleUser, "show me **bold**"),
		types.NewEvent(types.RoleTool, types.ContentBlock{
			Type: types.ContentTypeToolResult, ToolName: "grep", ToolOutput: "<script>alert(1)</script>",
		}),
	)
	if err := st.Save(context.Background(), sess); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, srv.Routes(), http.MethodGet,
		"/api/history?app=crm&user_id=alice&session_id=s1&format=html", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>bold</strong>") {
		t.Error("markdown not rendered")
	}
	if strings.Contains(body, "<script>") {
		t.Error("tool output not escaped")
	}
	if !strings.Contains(body, "[ToolOutput: grep]") {
		t.Error("tool output marker missing")
	}
}
