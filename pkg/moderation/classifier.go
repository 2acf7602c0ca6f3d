// Package moderation classifies text against the content policy.
package moderation

import (
	"context"
	"strings"
)

// Policy categories in reporting order.
const (
	CategoryViolence = "violence"
	CategorySexual   = "sexual"
	CategorySelfHarm = "self_harm"
	CategoryHate     = "hate"
)

var categoryLabels = []struct {
	key   string
	label string
}{
	{CategoryViolence, "Violence"},
	{CategorySexual, "Sexual Content"},
	{CategorySelfHarm, "Self-Harm"},
	{CategoryHate, "Hate Speech"},
}

type Verdict struct {
	Allowed    bool
	Reason     string
	Confidence float64
	// Per-category scores, reported for allowed and blocked text alike.
	Categories map[string]float64
}

// Classifier is stateless per call. An error means no verdict could be
// reached; it never stands for a block.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Verdict, error)
}

// Evaluate turns per-category flags and scores into a verdict. The reason
// lists every flagged category label joined by "; ".
func Evaluate(flagged map[string]bool, scores map[string]float64) *Verdict {
	var reasons []string
	maxScore := 0.0

	for _, c := range categoryLabels {
		if !flagged[c.key] {
			continue
		}
		reasons = append(reasons, c.label)
		if scores[c.key] > maxScore {
			maxScore = scores[c.key]
		}
	}

	categories := make(map[string]float64, len(categoryLabels))
	for _, c := range categoryLabels {
		categories[c.key] = scores[c.key]
	}

	return &Verdict{
		Allowed:    len(reasons) == 0,
		Reason:     strings.Join(reasons, "; "),
		Confidence: maxScore,
		Categories: categories,
	}
}
