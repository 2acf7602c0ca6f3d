// Package retrieval supplies group-scoped document passages for a prompt.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"soulscript-chat-be/internal/constant"
	"soulscript-chat-be/internal/repository/unitofwork"
	"soulscript-chat-be/pkg/embedding"
)

type Passage struct {
	Title      string
	Content    string
	Similarity float64
}

// ContextProvider returns the passages most relevant to query within group.
// An empty result is not an error.
type ContextProvider interface {
	Retrieve(ctx context.Context, group, query string, limit int) ([]Passage, error)
}

// VectorProvider embeds the query and runs a pgvector cosine search over
// the document chunks of the group.
type VectorProvider struct {
	embedder      embedding.EmbeddingProvider
	uowFactory    unitofwork.RepositoryFactory
	minSimilarity float64
}

func NewVectorProvider(embedder embedding.EmbeddingProvider, uowFactory unitofwork.RepositoryFactory, minSimilarity float64) *VectorProvider {
	return &VectorProvider{
		embedder:      embedder,
		uowFactory:    uowFactory,
		minSimilarity: minSimilarity,
	}
}

func (p *VectorProvider) Retrieve(ctx context.Context, group, query string, limit int) ([]Passage, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}

	emb, err := p.embedder.Generate(ctx, query, constant.EmbeddingTaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	uow := p.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentChunkRepository().SearchSimilar(ctx, group, emb.Embedding.Values, limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	passages := make([]Passage, 0, len(scored))
	for _, s := range scored {
		if s.Similarity < p.minSimilarity {
			continue
		}
		passages = append(passages, Passage{
			Title:      s.Chunk.DocumentTitle,
			Content:    s.Chunk.Content,
			Similarity: s.Similarity,
		})
	}
	return passages, nil
}

// FormatPassages renders passages as "From '<title>': <content>" blocks
// separated by blank lines, each content cut to maxChars characters.
func FormatPassages(passages []Passage, maxChars int) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		title := p.Title
		if title == "" {
			title = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("From '%s': %s", title, truncateRunes(p.Content, maxChars)))
	}
	return strings.Join(parts, "\n\n")
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
