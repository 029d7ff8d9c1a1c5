package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/polyglot-coach/backend/internal/model/chat"
	"github.com/zhouzirui/polyglot-coach/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/polyglot-coach/backend/internal/service/chat"
)

type echoCompleter struct{}

func (echoCompleter) StreamCompletion(_ context.Context, turns []chat.Turn) (*schema.StreamReader[*schema.Message], error) {
	last := turns[len(turns)-1].Content
	return schema.StreamReaderFromArray([]*schema.Message{
		schema.AssistantMessage("you said: ", nil),
		schema.AssistantMessage(last, nil),
	}), nil
}

func newTestRouter() http.Handler {
	store, _ := persona.NewMemoryStore(persona.Seed())
	chatSvc := chatservice.NewService(persona.DefaultID, "gpt-oss-120b", "sys")
	frontend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>ui</html>"))
	})
	return NewRouter(store, chatSvc, chatservice.NewProcessor(echoCompleter{}), Options{
		PersonaID:      persona.DefaultID,
		Model:          "gpt-oss-120b",
		KnownModels:    []string{"gpt-oss-120b"},
		AllowedOrigins: []string{"*"},
		Frontend:       frontend,
	})
}

func TestRouterConversationRoundTrip(t *testing.T) {
	r := newTestRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d", resp.Code)
	}
	var session chat.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	resp = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+session.ID+"/messages", strings.NewReader(`{"content":"Hola"}`))
	r.ServeHTTP(resp, req)
	if !strings.Contains(resp.Body.String(), `"content":"you said: Hola"`) {
		t.Fatalf("missing final message event: %s", resp.Body.String())
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.ID+"/messages", nil))
	var view struct {
		Messages []chat.Turn `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	want := []chat.Turn{
		{Role: chat.RoleUser, Content: "Hola"},
		{Role: chat.RoleAssistant, Content: "you said: Hola"},
	}
	if len(view.Messages) != 2 || view.Messages[0] != want[0] || view.Messages[1] != want[1] {
		t.Fatalf("unexpected transcript %+v", view.Messages)
	}
}

func TestRouterHealthz(t *testing.T) {
	resp := httptest.NewRecorder()
	newTestRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestRouterServesFrontend(t *testing.T) {
	resp := httptest.NewRecorder()
	newTestRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(resp.Body.String(), "ui") {
		t.Fatalf("expected frontend, got %q", resp.Body.String())
	}
}
