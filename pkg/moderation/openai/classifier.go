package openai

import (
	"context"
	"fmt"

	"soulscript-chat-be/pkg/moderation"

	goopenai "github.com/sashabaranov/go-openai"
)

type Classifier struct {
	client *goopenai.Client
	model  string
}

var _ moderation.Classifier = &Classifier{}

func NewClassifier(apiKey, baseURL, model string) *Classifier {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Classifier{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *Classifier) Classify(ctx context.Context, text string) (*moderation.Verdict, error) {
	resp, err := c.client.Moderations(ctx, goopenai.ModerationRequest{
		Input: text,
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai moderation: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("openai moderation returned no results")
	}

	result := resp.Results[0]
	flagged := map[string]bool{
		moderation.CategoryViolence: result.Categories.Violence,
		moderation.CategorySexual:   result.Categories.Sexual,
		moderation.CategorySelfHarm: result.Categories.SelfHarm,
		moderation.CategoryHate:     result.Categories.Hate,
	}
	scores := map[string]float64{
		moderation.CategoryViolence: float64(result.CategoryScores.Violence),
		moderation.CategorySexual:   float64(result.CategoryScores.Sexual),
		moderation.CategorySelfHarm: float64(result.CategoryScores.SelfHarm),
		moderation.CategoryHate:     float64(result.CategoryScores.Hate),
	}

	return moderation.Evaluate(flagged, scores), nil
}
