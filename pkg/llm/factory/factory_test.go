package factory

import (
	"testing"

	"soulscript-chat-be/pkg/llm/ollama"
	"soulscript-chat-be/pkg/llm/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider(Params{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	o, ok := p.(*ollama.OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434", o.BaseURL)

	p, err = NewLLMProvider(Params{Provider: "openai", Model: "gpt-4o-mini", APIKey: "k"})
	require.NoError(t, err)
	_, ok = p.(*openai.OpenAIProvider)
	assert.True(t, ok)

	_, err = NewLLMProvider(Params{Provider: "openai", Model: "gpt-4o-mini"})
	assert.Error(t, err)

	_, err = NewLLMProvider(Params{Provider: "huggingface"})
	assert.Error(t, err)
}
