package contract

import (
	"context"

	"soulscript-chat-be/internal/entity"
)

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByDocument(ctx context.Context, groupScope, documentTitle string) error
	SearchSimilar(ctx context.Context, groupScope string, embedding []float32, limit int) ([]*entity.ScoredChunk, error)
}
