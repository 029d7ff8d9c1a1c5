package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zhouzirui/polyglot-coach/backend/internal/config"
	"github.com/zhouzirui/polyglot-coach/backend/internal/service/ai"
	"github.com/zhouzirui/polyglot-coach/backend/internal/service/chat"
)

func TestRunServerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runServer err: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServer did not return after cancel")
	}
}

func TestRunServerReportsListenError(t *testing.T) {
	srv := &http.Server{Addr: "256.0.0.1:bad", Handler: http.NotFoundHandler()}

	if err := runServer(context.Background(), srv); err == nil {
		t.Fatal("expected listen error")
	}
}

func TestTurnWithoutCredentialFailsAtRemote(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Wrong API Key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	aiCfg := config.AIConfig{Model: config.DefaultModel, BaseURL: srv.URL + "/v1", Timeout: 5 * time.Second}
	chatModel, err := aiCfg.NewChatModel(ctx)
	if err != nil {
		t.Fatalf("NewChatModel err: %v", err)
	}
	aiService, err := ai.NewService(ctx, chatModel, aiCfg.Model)
	if err != nil {
		t.Fatalf("ai.NewService err: %v", err)
	}

	chatService := chat.NewService("language-coach", aiCfg.Model, "be a coach")
	session, _ := chatService.CreateSession(ctx)
	transcript, _ := chatService.Transcript(ctx, session.ID)

	_, err = chat.NewProcessor(aiService).HandleUserTurn(ctx, transcript, "Hello", nil)

	var remoteErr *chat.RemoteCompletionError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteCompletionError, got %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected remote 401 in error, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected exactly one remote request, got %d", hits.Load())
	}
	if transcript.Len() != 2 {
		t.Fatalf("expected system and user turns only, got %+v", transcript.All())
	}
}
