package service

import (
	"context"
	"errors"
	"time"

	"soulscript-chat-be/internal/constant"
	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/pkg/apperror"
	"soulscript-chat-be/internal/pkg/logger"
	"soulscript-chat-be/internal/pkg/metrics"
	"soulscript-chat-be/internal/repository/specification"
	"soulscript-chat-be/internal/repository/unitofwork"
	"soulscript-chat-be/pkg/moderation"
	modEvents "soulscript-chat-be/pkg/moderation/events"

	"github.com/google/uuid"
)

// Violation is one blocked classification, ready to be logged.
type Violation struct {
	Principal     entity.Principal
	ChatSessionId *uuid.UUID
	ContentType   string
	Content       string
	Verdict       *moderation.Verdict
}

// ModerationGate is the part of the moderation service a chat turn uses.
type ModerationGate interface {
	// Check classifies text. A classifier failure or timeout comes back as a
	// retryable UpstreamFailure, never as a block.
	Check(ctx context.Context, contentType, text string) (*moderation.Verdict, error)
	// NewViolationLog builds the log row of a blocked call without writing it.
	NewViolationLog(v Violation) *entity.ModerationLog
	// ViolationRecorded counts and announces a row that has been committed.
	ViolationRecorded(ctx context.Context, record *entity.ModerationLog)
	// RecordViolation appends exactly one moderation log row and announces it.
	RecordViolation(ctx context.Context, v Violation) (*entity.ModerationLog, error)
	NotifySessionBlocked(ctx context.Context, session *entity.ChatSession, contentType string)
}

type IModerationService interface {
	ModerationGate

	ListLogs(ctx context.Context, query *dto.ModerationLogQuery) ([]*dto.ModerationLogResponse, int64, error)
	Statistics(ctx context.Context) (*dto.ModerationStatisticsResponse, error)
}

type moderationService struct {
	uowFactory unitofwork.RepositoryFactory
	classifier moderation.Classifier
	publisher  modEvents.Publisher
	metrics    *metrics.ChatMetrics
	logger     logger.ILogger
	timeout    time.Duration
	location   *time.Location
	now        func() time.Time
}

func NewModerationService(
	uowFactory unitofwork.RepositoryFactory,
	classifier moderation.Classifier,
	publisher modEvents.Publisher,
	chatMetrics *metrics.ChatMetrics,
	logger logger.ILogger,
	timeout time.Duration,
	location *time.Location,
) IModerationService {
	if location == nil {
		location = time.UTC
	}
	return &moderationService{
		uowFactory: uowFactory,
		classifier: classifier,
		publisher:  publisher,
		metrics:    chatMetrics,
		logger:     logger,
		timeout:    timeout,
		location:   location,
		now:        time.Now,
	}
}

func (s *moderationService) Check(ctx context.Context, contentType, text string) (*moderation.Verdict, error) {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	verdict, err := s.classifier.Classify(callCtx, text)
	if err == nil && verdict == nil {
		err = errors.New("classifier returned no verdict")
	}
	if err != nil {
		s.metrics.RecordUpstreamFailure("moderation")
		s.logger.Error("MODERATION", "Moderation call failed", map[string]interface{}{
			"content_type": contentType,
			"error":        err.Error(),
		})
		return nil, apperror.Upstream("Content moderation is temporarily unavailable. Please try again.", err)
	}

	return verdict, nil
}

func (s *moderationService) NewViolationLog(v Violation) *entity.ModerationLog {
	reason := ""
	var categories map[string]float64
	if v.Verdict != nil {
		reason = v.Verdict.Reason
		categories = v.Verdict.Categories
	}
	if reason == "" {
		reason = "Content policy violation"
	}

	return &entity.ModerationLog{
		Id:              uuid.New(),
		UserRef:         v.Principal.Ref(),
		ChatSessionId:   v.ChatSessionId,
		ContentType:     v.ContentType,
		OriginalContent: v.Content,
		BlockedReason:   reason,
		Categories:      categories,
		CreatedAt:       s.now().UTC(),
	}
}

func (s *moderationService) ViolationRecorded(ctx context.Context, record *entity.ModerationLog) {
	s.metrics.RecordModerationBlock(record.ContentType)
	s.logger.Warn("MODERATION", "Content blocked", map[string]interface{}{
		"moderation_log_id": record.Id,
		"user_ref":          record.UserRef,
		"content_type":      record.ContentType,
		"reason":            record.BlockedReason,
	})
	s.publisher.PublishContentViolation(ctx, record)
}

func (s *moderationService) RecordViolation(ctx context.Context, v Violation) (*entity.ModerationLog, error) {
	record := s.NewViolationLog(v)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ModerationLogRepository().Create(ctx, record); err != nil {
		s.logger.Error("MODERATION", "Failed to write moderation log", map[string]interface{}{
			"user_ref":     record.UserRef,
			"content_type": record.ContentType,
			"error":        err.Error(),
		})
		return nil, err
	}

	s.ViolationRecorded(ctx, record)
	return record, nil
}

func (s *moderationService) NotifySessionBlocked(ctx context.Context, session *entity.ChatSession, contentType string) {
	s.publisher.PublishSessionBlocked(ctx, session, contentType)
}

func (s *moderationService) ListLogs(ctx context.Context, query *dto.ModerationLogQuery) ([]*dto.ModerationLogResponse, int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ModerationLogRepository()

	var filters []specification.Specification
	if query.UserId != "" {
		filters = append(filters, specification.UserRefContains{Fragment: query.UserId})
	}
	if query.ContentType != "" {
		filters = append(filters, specification.ByContentType{ContentType: query.ContentType})
	}

	total, err := repo.Count(ctx, filters...)
	if err != nil {
		return nil, 0, err
	}

	specs := append([]specification.Specification{}, filters...)
	specs = append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: query.Limit, Offset: query.Offset},
	)
	logs, err := repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, 0, err
	}

	res := make([]*dto.ModerationLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, &dto.ModerationLogResponse{
			Id:              l.Id,
			UserRef:         l.UserRef,
			ChatSessionId:   l.ChatSessionId,
			ContentType:     l.ContentType,
			OriginalContent: l.OriginalContent,
			BlockedReason:   l.BlockedReason,
			Categories:      l.Categories,
			CreatedAt:       l.CreatedAt,
		})
	}
	return res, total, nil
}

func (s *moderationService) Statistics(ctx context.Context) (*dto.ModerationStatisticsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ModerationLogRepository()

	total, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	today, err := repo.Count(ctx, specification.CreatedSince{Since: startOfDay(s.now(), s.location)})
	if err != nil {
		return nil, err
	}

	userInput, err := repo.Count(ctx, specification.ByContentType{ContentType: constant.ContentTypeUserInput})
	if err != nil {
		return nil, err
	}

	aiResponse, err := repo.Count(ctx, specification.ByContentType{ContentType: constant.ContentTypeAiResponse})
	if err != nil {
		return nil, err
	}

	return &dto.ModerationStatisticsResponse{
		TotalViolations:      total,
		TodayViolations:      today,
		UserInputViolations:  userInput,
		AiResponseViolations: aiResponse,
	}, nil
}
