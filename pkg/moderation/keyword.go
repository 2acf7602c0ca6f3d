package moderation

import (
	"context"
	"strings"
)

// KeywordClassifier flags text containing any configured phrase. It backs
// local development and tests where no moderation API is reachable.
type KeywordClassifier struct {
	phrases map[string][]string
}

func DefaultKeywords() map[string][]string {
	return map[string][]string{
		CategoryViolence: {"kill them", "how to hurt", "build a bomb"},
		CategorySexual:   {"explicit sex"},
		CategorySelfHarm: {"kill myself", "end my life", "hurt myself"},
		CategoryHate:     {"subhuman"},
	}
}

func NewKeywordClassifier(phrases map[string][]string) *KeywordClassifier {
	normalized := make(map[string][]string, len(phrases))
	for category, list := range phrases {
		for _, p := range list {
			normalized[category] = append(normalized[category], strings.ToLower(p))
		}
	}
	return &KeywordClassifier{phrases: normalized}
}

func (k *KeywordClassifier) Classify(ctx context.Context, text string) (*Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lower := strings.ToLower(text)
	flagged := make(map[string]bool)
	scores := make(map[string]float64)
	for category, list := range k.phrases {
		for _, p := range list {
			if strings.Contains(lower, p) {
				flagged[category] = true
				scores[category] = 1.0
				break
			}
		}
	}
	return Evaluate(flagged, scores), nil
}
