package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is one embedded passage of an ingested document.
type DocumentChunk struct {
	Id            uuid.UUID
	GroupScope    string
	DocumentTitle string
	Content       string
	ChunkIndex    int
	Embedding     []float32
	CreatedAt     time.Time
}

// ScoredChunk is a chunk returned by a similarity search.
type ScoredChunk struct {
	Chunk      *DocumentChunk
	Similarity float64 // 1.0 = identical
}
