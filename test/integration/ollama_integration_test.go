package integration

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"soulscript-chat-be/internal/constant"
	"soulscript-chat-be/pkg/embedding"
	"soulscript-chat-be/pkg/llm"
	"soulscript-chat-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollamaOrSkip(t *testing.T) (string, string) {
	t.Helper()

	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := os.Getenv("OLLAMA_TEST_MODEL")
	if model == "" {
		model = "gemma:2b"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/tags")
	if err != nil {
		t.Skipf("Skipping integration test: Ollama not reachable at %s", baseURL)
	}
	resp.Body.Close()
	return baseURL, model
}

func TestOllamaChatStream(t *testing.T) {
	baseURL, model := ollamaOrSkip(t)
	provider := ollama.NewOllamaProvider(baseURL, model)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	stream, err := provider.ChatStream(ctx, []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: "Answer in one short sentence."},
		{Role: constant.ChatMessageRoleUser, Content: "What is the capital of France?"},
	}, llm.WithTemperature(0))
	require.NoError(t, err)

	answer, err := llm.Collect(stream)
	require.NoError(t, err)
	t.Logf("Ollama answered: %s", answer)
	assert.Contains(t, strings.ToLower(answer), "paris")
}

func TestOllamaEmbedding(t *testing.T) {
	baseURL, _ := ollamaOrSkip(t)
	model := os.Getenv("OLLAMA_EMBEDDING_MODEL")
	if model == "" {
		model = "nomic-embed-text"
	}
	provider := embedding.NewOllamaProvider(baseURL, model)

	res, err := provider.Generate(context.Background(), "Grace and peace to you.", constant.EmbeddingTaskDocument)
	require.NoError(t, err)
	require.NotEmpty(t, res.Embedding.Values)

	var norm float64
	for _, v := range res.Embedding.Values {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-3)
}
