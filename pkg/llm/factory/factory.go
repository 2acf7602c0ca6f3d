package factory

import (
	"fmt"

	"soulscript-chat-be/pkg/llm"
	"soulscript-chat-be/pkg/llm/ollama"
	"soulscript-chat-be/pkg/llm/openai"
)

type Params struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	OllamaURL string
}

func NewLLMProvider(p Params) (llm.LLMProvider, error) {
	switch p.Provider {
	case "ollama":
		baseURL := p.OllamaURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, p.Model), nil
	case "openai":
		if p.APIKey == "" && p.BaseURL == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY or OPENAI_BASE_URL")
		}
		return openai.NewOpenAIProvider(p.APIKey, p.BaseURL, p.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", p.Provider)
	}
}
