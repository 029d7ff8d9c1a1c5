package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/polyglot-coach/backend/internal/model/persona"
)

// PromptManager renders the fixed persona instruction that opens every transcript.
type PromptManager struct{}

// NewPromptManager creates a prompt manager.
func NewPromptManager() *PromptManager {
	return &PromptManager{}
}

// BuildSystemPrompt creates the system instruction for the persona.
func (pm *PromptManager) BuildSystemPrompt(p persona.Persona) string {
	if len(p.CorrectionSteps) == 0 && len(p.QuestionStyle) == 0 && len(p.Rules) == 0 {
		return pm.buildBasicSystemPrompt(p)
	}

	return fmt.Sprintf(`You are a language genius who has mastered every language. Whenever a conversation turns to a particular language, explain it in detail and correct any wrong expressions.

Correcting expressions:
When the learner uses a wrong expression, or there is a more natural way to say it:
%s

Question style:
%s

Rules:
%s`,
		numbered(p.CorrectionSteps),
		bulleted(p.QuestionStyle),
		bulleted(p.Rules),
	)
}

// buildBasicSystemPrompt is used when a persona carries no structured instruction.
func (pm *PromptManager) buildBasicSystemPrompt(p persona.Persona) string {
	return fmt.Sprintf("You are %s, %s. Keep a %s tone. %s",
		p.Name,
		p.Title,
		p.Tone,
		p.Description,
	)
}

func numbered(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return strings.Join(lines, "\n")
}

func bulleted(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
