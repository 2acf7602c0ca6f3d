package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"soulscript-chat-be/internal/constant"
	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/pkg/apperror"
	"soulscript-chat-be/internal/pkg/logger"
	"soulscript-chat-be/internal/repository/unitofwork"
	"soulscript-chat-be/pkg/embedding"
	"soulscript-chat-be/pkg/utils"

	"github.com/google/uuid"
)

// Chunking of ingested text, in characters.
const (
	DocumentChunkSize    = 1500
	DocumentChunkOverlap = 200
)

// IDocumentService feeds the context provider. Text arrives already
// extracted; file parsing happens upstream.
type IDocumentService interface {
	// Enqueue hands the document to the ingest worker.
	Enqueue(ctx context.Context, req *dto.IngestDocumentRequest) error
	// Ingest chunks, embeds and stores a document, replacing any earlier
	// version with the same title in the same group. It returns the chunk count.
	Ingest(ctx context.Context, doc dto.PublishIngestDocumentMessage) (int, error)
}

type documentService struct {
	uowFactory        unitofwork.RepositoryFactory
	publisherService  IPublisherService
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	embeddingProvider embedding.EmbeddingProvider,
	logger logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:        uowFactory,
		publisherService:  publisherService,
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

func (s *documentService) Enqueue(ctx context.Context, req *dto.IngestDocumentRequest) error {
	if strings.TrimSpace(req.Content) == "" {
		return apperror.Validation("Document content is empty")
	}

	payload, err := json.Marshal(dto.PublishIngestDocumentMessage{
		GroupScope: req.GroupScope,
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
	})
	if err != nil {
		return err
	}

	return s.publisherService.Publish(ctx, payload)
}

func (s *documentService) Ingest(ctx context.Context, doc dto.PublishIngestDocumentMessage) (int, error) {
	chunks := utils.SplitText(doc.Content, DocumentChunkSize, DocumentChunkOverlap)

	records := make([]*entity.DocumentChunk, 0, len(chunks))
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		res, err := s.embeddingProvider.Generate(ctx, chunk, constant.EmbeddingTaskDocument)
		if err != nil {
			return 0, err
		}
		records = append(records, &entity.DocumentChunk{
			Id:            uuid.New(),
			GroupScope:    doc.GroupScope,
			DocumentTitle: doc.Title,
			Content:       chunk,
			ChunkIndex:    i,
			Embedding:     res.Embedding.Values,
			CreatedAt:     time.Now(),
		})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocument(ctx, doc.GroupScope, doc.Title); err != nil {
		return 0, err
	}
	if len(records) > 0 {
		if err := uow.DocumentChunkRepository().CreateBulk(ctx, records); err != nil {
			return 0, err
		}
	}
	if err := uow.Commit(); err != nil {
		return 0, err
	}

	s.logger.Info("DOCUMENT", "Document ingested", map[string]interface{}{
		"group_scope": doc.GroupScope,
		"title":       doc.Title,
		"chunks":      len(records),
	})
	return len(records), nil
}
