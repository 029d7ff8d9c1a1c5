package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	chatService "github.com/zhouzirui/polyglot-coach/backend/internal/service/chat"
	"github.com/zhouzirui/polyglot-coach/backend/internal/telemetry"
	"github.com/zhouzirui/polyglot-coach/backend/pkg/utils"
)

// Handler streams assistant turns to the browser via Server-Sent Events.
type Handler struct {
	processor *chatService.Processor
	chatSvc   *chatService.Service
}

// New creates a new stream handler
func New(processor *chatService.Processor, chatSvc *chatService.Service) *Handler {
	return &Handler{
		processor: processor,
		chatSvc:   chatSvc,
	}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RegisterRoutes 注册流式对话路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions/{sessionID}/messages", h.handleSubmit)
}

// handleSubmit records the user turn and streams the assistant reply.
// Events: start, delta (one per non-empty fragment), message (final text), end;
// or error in place of message/end when the remote call fails.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	transcript, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if strings.TrimSpace(payload.Content) == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	release, err := h.chatSvc.BeginTurn(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	defer release()

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	// A started turn runs to completion even if the browser goes away, so the
	// assistant turn still lands in the transcript.
	ctx := telemetry.WithSessionID(context.WithoutCancel(r.Context()), sessionID)

	send := newSender(w, flusher, sessionID)
	send(StreamResponse{Event: "start"})

	turn, err := h.processor.HandleUserTurn(ctx, transcript, payload.Content, func(p chatService.Progress) {
		if p.State == chatService.StateStreaming && p.Fragment != "" {
			send(StreamResponse{Event: "delta", Content: p.Fragment})
		}
	})
	if err != nil {
		slog.Error("[stream] turn failed", "session", sessionID, "error", err)
		send(StreamResponse{Event: "error", Error: describeError(err)})
		return
	}

	send(StreamResponse{Event: "message", Content: turn.Content})
	send(StreamResponse{Event: "end", Finished: true})
}

// newSender returns a func that writes SSE chunks until the first write error;
// later chunks are dropped silently once the client has disconnected.
func newSender(w http.ResponseWriter, flusher http.Flusher, sessionID string) func(StreamResponse) {
	broken := false
	return func(resp StreamResponse) {
		if broken {
			return
		}
		resp.SessionID = sessionID
		if err := utils.SendSSEChunk(w, flusher, resp); err != nil {
			slog.Warn("[stream] client went away", "session", sessionID, "error", err)
			broken = true
		}
	}
}

func describeError(err error) string {
	var remoteErr *chatService.RemoteCompletionError
	if errors.As(err, &remoteErr) {
		return remoteErr.Error()
	}
	return "failed to process message"
}

func respondServiceError(w http.ResponseWriter, err error) {
	utils.RespondServiceError(w, err,
		utils.ErrorStatus{Target: chatService.ErrSessionNotFound, Status: http.StatusNotFound},
		utils.ErrorStatus{Target: chatService.ErrTurnInProgress, Status: http.StatusConflict},
	)
}
