package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/polyglot-coach/backend/internal/model/chat"
)

// 每轮请求固定的采样参数。
const (
	Temperature     float32 = 0.7
	MaxOutputTokens         = 1000
)

// Service forwards a transcript to the remote chat-completion model.
type Service struct {
	chatModel model.BaseChatModel
	modelName string
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the completion chain around chatModel.
// The template only forwards the history placeholder, so every turn reaches
// the model exactly as stored.
func NewService(ctx context.Context, chatModel model.BaseChatModel, modelName string) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("history", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		modelName: modelName,
		chain:     runnable,
	}, nil
}

// ModelName returns the configured remote model identifier.
func (s *Service) ModelName() string {
	return s.modelName
}

// StreamCompletion issues a streaming completion over the full transcript.
// The returned reader yields fragments until io.EOF and must be closed by the caller.
func (s *Service) StreamCompletion(ctx context.Context, turns []chat.Turn) (*schema.StreamReader[*schema.Message], error) {
	input := map[string]any{
		"history": BuildMessages(turns),
	}

	stream, err := s.chain.Stream(ctx, input, compose.WithChatModelOption(
		model.WithTemperature(Temperature),
		model.WithMaxTokens(MaxOutputTokens),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to stream chat completion: %w", err)
	}

	slog.Debug("[ai] completion stream opened", "model", s.modelName, "messages", len(turns))
	return stream, nil
}

// BuildMessages converts turns to model messages, preserving order, role and content.
func BuildMessages(turns []chat.Turn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, &schema.Message{
			Role:    schema.RoleType(turn.Role),
			Content: turn.Content,
		})
	}
	return messages
}
