package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/zhouzirui/polyglot-coach/backend/internal/model/chat"
	"github.com/zhouzirui/polyglot-coach/backend/internal/telemetry"
)

const instrumentationName = "github.com/zhouzirui/polyglot-coach/backend/internal/service/chat"

// ErrEmptyInput reports a blank submission. It is not a failure: nothing is
// recorded and no request is issued.
var ErrEmptyInput = errors.New("empty input ignored")

// RemoteCompletionError wraps any failure of the remote completion call.
type RemoteCompletionError struct {
	Cause error
}

func (e *RemoteCompletionError) Error() string {
	return fmt.Sprintf("remote completion failed: %v", e.Cause)
}

func (e *RemoteCompletionError) Unwrap() error {
	return e.Cause
}

// State is the phase of one turn-processing cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingFirstFragment
	StateStreaming
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFirstFragment:
		return "awaiting_first_fragment"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Progress is handed to the renderer on every state change and fragment.
// Content always holds the assistant text assembled so far.
type Progress struct {
	State    State
	Fragment string
	Content  string
}

// RenderFunc receives intermediate progress while a turn streams.
type RenderFunc func(Progress)

// Completer opens a streaming completion over an ordered transcript.
type Completer interface {
	StreamCompletion(ctx context.Context, turns []chat.Turn) (*schema.StreamReader[*schema.Message], error)
}

// Processor drives one request/response cycle per user submission.
type Processor struct {
	completer Completer
	tracer    trace.Tracer
	turns     metric.Int64Counter
	fragments metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewProcessor creates a processor reporting to the global OpenTelemetry providers.
func NewProcessor(completer Completer) *Processor {
	meter := otel.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	turns, err := meter.Int64Counter("chat.turns", metric.WithDescription("Turn-processing cycles by outcome"))
	if err != nil {
		slog.Warn("[chat] failed to create turns counter", "error", err)
		turns, _ = fallback.Int64Counter("chat.turns")
	}
	fragments, err := meter.Int64Counter("chat.fragments", metric.WithDescription("Streamed completion fragments"))
	if err != nil {
		slog.Warn("[chat] failed to create fragments counter", "error", err)
		fragments, _ = fallback.Int64Counter("chat.fragments")
	}
	duration, err := meter.Float64Histogram("chat.turn.duration", metric.WithUnit("ms"), metric.WithDescription("Turn-processing latency"))
	if err != nil {
		slog.Warn("[chat] failed to create duration histogram", "error", err)
		duration, _ = fallback.Float64Histogram("chat.turn.duration")
	}

	return &Processor{
		completer: completer,
		tracer:    otel.Tracer(instrumentationName),
		turns:     turns,
		fragments: fragments,
		duration:  duration,
	}
}

// HandleUserTurn appends text as a user turn, streams the completion over the
// whole transcript and appends the assembled assistant turn. Blank text yields
// ErrEmptyInput; remote failures yield *RemoteCompletionError and leave the
// user turn in place.
func (p *Processor) HandleUserTurn(ctx context.Context, transcript *chat.Transcript, text string, render RenderFunc) (chat.Turn, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Turn{}, ErrEmptyInput
	}
	if render == nil {
		render = func(Progress) {}
	}

	if err := transcript.Append(chat.RoleUser, text); err != nil {
		return chat.Turn{}, fmt.Errorf("failed to record user turn: %w", err)
	}

	ctx, span := p.tracer.Start(ctx, "chat.turn")
	defer span.End()
	if sessionID, ok := telemetry.SessionIDFromContext(ctx); ok {
		span.SetAttributes(attribute.String("session.id", sessionID))
	}
	started := time.Now()

	content, fragments, err := p.consume(ctx, transcript.All(), render)
	if err != nil {
		render(Progress{State: StateFailed, Content: content})
		render(Progress{State: StateIdle})
		p.record(ctx, span, started, StateFailed, fragments, err)
		return chat.Turn{}, &RemoteCompletionError{Cause: err}
	}

	if err := transcript.Append(chat.RoleAssistant, content); err != nil {
		return chat.Turn{}, fmt.Errorf("failed to record assistant turn: %w", err)
	}

	render(Progress{State: StateCompleted, Content: content})
	render(Progress{State: StateIdle})
	p.record(ctx, span, started, StateCompleted, fragments, nil)

	return chat.Turn{Role: chat.RoleAssistant, Content: content}, nil
}

// consume reads the completion until EOF, rendering the buffer after every fragment.
func (p *Processor) consume(ctx context.Context, turns []chat.Turn, render RenderFunc) (string, int, error) {
	render(Progress{State: StateAwaitingFirstFragment})

	stream, err := p.completer.StreamCompletion(ctx, turns)
	if err != nil {
		return "", 0, err
	}
	defer stream.Close()

	var buffer strings.Builder
	fragments := 0
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			return buffer.String(), fragments, nil
		}
		if recvErr != nil {
			return buffer.String(), fragments, recvErr
		}
		if chunk == nil {
			continue
		}

		fragments++
		buffer.WriteString(chunk.Content)
		render(Progress{State: StateStreaming, Fragment: chunk.Content, Content: buffer.String()})
	}
}

func (p *Processor) record(ctx context.Context, span trace.Span, started time.Time, outcome State, fragments int, err error) {
	elapsed := float64(time.Since(started).Microseconds()) / 1000
	outcomeAttr := attribute.String("outcome", outcome.String())

	span.SetAttributes(outcomeAttr, attribute.Int("fragments", fragments))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	sessionID, _ := telemetry.SessionIDFromContext(ctx)
	slog.Info("[chat] turn finished", "session", sessionID, "outcome", outcome.String(), "fragments", fragments, "elapsed_ms", elapsed)

	p.turns.Add(ctx, 1, metric.WithAttributes(outcomeAttr))
	p.fragments.Add(ctx, int64(fragments))
	p.duration.Record(ctx, elapsed, metric.WithAttributes(outcomeAttr))
}
