package prompt

import (
	"strings"

	"soulscript-chat-be/internal/constant"
	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/pkg/llm"
	"soulscript-chat-be/pkg/rag/memory"
)

type Input struct {
	SystemPrompt string
	Flags        []*entity.FeatureFlag
	// Passages is the already formatted retrieval context; empty when none.
	Passages string
	Memory   *memory.Context
	UserText string
}

// Build assembles the model input in a fixed order: system instructions,
// active flags and conversation summary in the system message, then the
// recent turns, then the new user text with the retrieved passages.
func Build(in Input) []llm.Message {
	var system strings.Builder
	system.WriteString(in.SystemPrompt)

	if flags := FormatFeatureFlags(in.Flags); flags != "" {
		system.WriteString("\n\n")
		system.WriteString(flags)
	}

	var recent []llm.Message
	if in.Memory != nil {
		if in.Memory.Summary != "" {
			system.WriteString("\n\nSummary of the earlier conversation:\n")
			system.WriteString(in.Memory.Summary)
		}
		recent = in.Memory.Messages
	}

	messages := make([]llm.Message, 0, len(recent)+2)
	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleSystem, Content: system.String()})
	messages = append(messages, recent...)

	userContent := in.UserText
	if in.Passages != "" {
		userContent = "Context from your documents:\n" + in.Passages + "\n\nUser question: " + in.UserText
	}
	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleUser, Content: userContent})

	return messages
}

// FormatFeatureFlags renders the active flags block, or "" when none are active.
func FormatFeatureFlags(flags []*entity.FeatureFlag) string {
	if len(flags) == 0 {
		return ""
	}

	parts := []string{constant.FeatureFlagActiveHeader}
	for _, f := range flags {
		parts = append(parts, "- "+f.Name+": "+f.Description)
	}
	parts = append(parts, "", constant.FeatureFlagInstructions, "", constant.FeatureFlagAvailableFooter)

	names := make([]string, 0, len(flags))
	for _, f := range flags {
		names = append(names, "- "+f.Name)
	}
	parts = append(parts, strings.Join(names, "\n"))

	return strings.Join(parts, "\n")
}
