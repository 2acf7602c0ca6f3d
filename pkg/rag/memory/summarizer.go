package memory

import (
	"context"
	"fmt"
	"strings"

	"soulscript-chat-be/internal/constant"
	"soulscript-chat-be/pkg/llm"
)

// LLMSummarizer asks the model for an updated synopsis of the conversation.
type LLMSummarizer struct {
	provider llm.LLMProvider
}

func NewLLMSummarizer(provider llm.LLMProvider) *LLMSummarizer {
	return &LLMSummarizer{provider: provider}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, existing string, messages []llm.Message) (string, error) {
	if existing == "" {
		existing = "(none)"
	}

	human := fmt.Sprintf(constant.ConversationSummaryHumanPrompt, existing, FormatTranscript(messages))
	out, err := s.provider.Chat(ctx, []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.ConversationSummarySystemPrompt},
		{Role: constant.ChatMessageRoleUser, Content: human},
	}, llm.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("summarize conversation: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// FormatTranscript renders messages one per line as "User: ..." or "Assistant: ...".
func FormatTranscript(messages []llm.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		speaker := "User"
		if m.Role == constant.ChatMessageRoleAssistant {
			speaker = "Assistant"
		}
		lines = append(lines, speaker+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
