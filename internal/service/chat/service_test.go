package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zhouzirui/polyglot-coach/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/polyglot-coach/backend/internal/service/chat"
)

func newService() *chatservice.Service {
	return chatservice.NewService("language-coach", "gpt-oss-120b", "be a coach")
}

func TestServiceGetSession(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
	if got.PersonaID != "language-coach" || got.Model != "gpt-oss-120b" {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := newService()

	if _, err := svc.GetSession(context.Background(), "missing"); !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceTranscriptSeededWithInstruction(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx)

	transcript, err := svc.Transcript(ctx, session.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	all := transcript.All()
	if len(all) != 1 || all[0] != (chat.Turn{Role: chat.RoleSystem, Content: "be a coach"}) {
		t.Fatalf("unexpected transcript %+v", all)
	}
}

func TestServiceSessionsDoNotShareTranscripts(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	a, _ := svc.CreateSession(ctx)
	b, _ := svc.CreateSession(ctx)

	ta, _ := svc.Transcript(ctx, a.ID)
	tb, _ := svc.Transcript(ctx, b.ID)
	if err := ta.Append(chat.RoleUser, "only in a"); err != nil {
		t.Fatal(err)
	}

	if tb.Len() != 1 {
		t.Fatalf("session b saw session a's turn: %+v", tb.All())
	}
}

func TestServiceBeginTurnIsExclusive(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx)

	release, err := svc.BeginTurn(ctx, session.ID)
	if err != nil {
		t.Fatalf("BeginTurn err: %v", err)
	}

	if _, err := svc.BeginTurn(ctx, session.ID); !errors.Is(err, chatservice.ErrTurnInProgress) {
		t.Fatalf("expected ErrTurnInProgress, got %v", err)
	}

	release()
	release2, err := svc.BeginTurn(ctx, session.ID)
	if err != nil {
		t.Fatalf("BeginTurn after release err: %v", err)
	}
	release2()
}

func TestServiceEndSession(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx)

	if err := svc.EndSession(ctx, session.ID); err != nil {
		t.Fatalf("EndSession err: %v", err)
	}
	if svc.Count() != 0 {
		t.Fatalf("expected no sessions, got %d", svc.Count())
	}
	if err := svc.EndSession(ctx, session.ID); !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceEndSessionRefusedDuringTurn(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx)

	release, err := svc.BeginTurn(ctx, session.ID)
	if err != nil {
		t.Fatalf("BeginTurn err: %v", err)
	}

	if err := svc.EndSession(ctx, session.ID); !errors.Is(err, chatservice.ErrTurnInProgress) {
		t.Fatalf("expected ErrTurnInProgress, got %v", err)
	}
	if svc.Count() != 1 {
		t.Fatalf("session dropped while a turn was running")
	}

	release()
	if err := svc.EndSession(ctx, session.ID); err != nil {
		t.Fatalf("EndSession after release err: %v", err)
	}
}
