package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		flagged    map[string]bool
		scores     map[string]float64
		allowed    bool
		reason     string
		confidence float64
	}{
		{
			name:    "clean",
			scores:  map[string]float64{CategoryViolence: 0.01},
			allowed: true,
		},
		{
			name:       "single category",
			flagged:    map[string]bool{CategorySelfHarm: true},
			scores:     map[string]float64{CategorySelfHarm: 0.93},
			reason:     "Self-Harm",
			confidence: 0.93,
		},
		{
			name:       "reasons follow category order",
			flagged:    map[string]bool{CategoryHate: true, CategoryViolence: true},
			scores:     map[string]float64{CategoryHate: 0.7, CategoryViolence: 0.8},
			reason:     "Violence; Hate Speech",
			confidence: 0.8,
		},
		{
			name:    "unknown category ignored",
			flagged: map[string]bool{"harassment": true},
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Evaluate(tt.flagged, tt.scores)
			assert.Equal(t, tt.allowed, v.Allowed)
			assert.Equal(t, tt.reason, v.Reason)
			assert.InDelta(t, tt.confidence, v.Confidence, 1e-9)
			assert.Len(t, v.Categories, 4)
		})
	}
}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier(DefaultKeywords())

	v, err := c.Classify(context.Background(), "I want to END MY LIFE tonight")
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, "Self-Harm", v.Reason)

	v, err = c.Classify(context.Background(), "How do I pray for my family?")
	require.NoError(t, err)
	assert.True(t, v.Allowed)
	assert.Empty(t, v.Reason)
}

func TestKeywordClassifier_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKeywordClassifier(DefaultKeywords()).Classify(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}
