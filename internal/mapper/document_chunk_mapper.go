package mapper

import (
	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type DocumentChunkMapper struct{}

func NewDocumentChunkMapper() *DocumentChunkMapper {
	return &DocumentChunkMapper{}
}

func (m *DocumentChunkMapper) ToEntity(chunk *model.DocumentChunk) *entity.DocumentChunk {
	if chunk == nil {
		return nil
	}
	return &entity.DocumentChunk{
		Id:            chunk.Id,
		GroupScope:    chunk.GroupScope,
		DocumentTitle: chunk.DocumentTitle,
		Content:       chunk.Content,
		ChunkIndex:    chunk.ChunkIndex,
		Embedding:     chunk.Embedding.Slice(),
		CreatedAt:     chunk.CreatedAt,
	}
}

func (m *DocumentChunkMapper) ToModel(chunk *entity.DocumentChunk) *model.DocumentChunk {
	if chunk == nil {
		return nil
	}
	return &model.DocumentChunk{
		Id:            chunk.Id,
		GroupScope:    chunk.GroupScope,
		DocumentTitle: chunk.DocumentTitle,
		Content:       chunk.Content,
		ChunkIndex:    chunk.ChunkIndex,
		Embedding:     pgvector.NewVector(chunk.Embedding),
		CreatedAt:     chunk.CreatedAt,
	}
}
