package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"soulscript-chat-be/internal/constant"
	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/pkg/apperror"
	"soulscript-chat-be/internal/pkg/logger"
	"soulscript-chat-be/internal/pkg/metrics"
	"soulscript-chat-be/internal/repository/specification"
	pkgEvents "soulscript-chat-be/pkg/events"
	"soulscript-chat-be/pkg/moderation"
	modEvents "soulscript-chat-be/pkg/moderation/events"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModerationHarness(t *testing.T, classifier moderation.Classifier) (*moderationService, *fakeUow, *recordingSink) {
	t.Helper()
	uow := newFakeUow()
	sink := &recordingSink{}
	log := logger.NewNopLogger()
	svc := NewModerationService(uow, classifier, modEvents.NewNatsPublisher(sink, log), metrics.NewChatMetrics(prometheus.NewRegistry()), log, 50*time.Millisecond, time.UTC).(*moderationService)
	return svc, uow, sink
}

type slowClassifier struct{}

func (slowClassifier) Classify(ctx context.Context, text string) (*moderation.Verdict, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type nilClassifier struct{}

func (nilClassifier) Classify(ctx context.Context, text string) (*moderation.Verdict, error) {
	return nil, nil
}

func TestCheck(t *testing.T) {
	svc, _, _ := newModerationHarness(t, &scriptedClassifier{triggers: []string{"hurt"}})

	verdict, err := svc.Check(context.Background(), constant.ContentTypeUserInput, "good morning")
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)

	verdict, err = svc.Check(context.Background(), constant.ContentTypeUserInput, "I will hurt you")
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, "Violence", verdict.Reason)
}

func TestCheck_FailuresAreRetryableUpstream(t *testing.T) {
	tests := []struct {
		name       string
		classifier moderation.Classifier
	}{
		{name: "error", classifier: &scriptedClassifier{err: errors.New("429 rate limited")}},
		{name: "timeout", classifier: slowClassifier{}},
		{name: "no verdict", classifier: nilClassifier{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, uow, sink := newModerationHarness(t, tt.classifier)

			verdict, err := svc.Check(context.Background(), constant.ContentTypeAiResponse, "text")
			require.Error(t, err)
			assert.Nil(t, verdict)

			var appErr *apperror.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperror.KindUpstreamFailure, appErr.Kind)
			assert.True(t, appErr.Retryable)

			assert.Empty(t, uow.logs.all())
			assert.Empty(t, sink.types())
		})
	}
}

func TestRecordViolation(t *testing.T) {
	svc, uow, sink := newModerationHarness(t, &scriptedClassifier{})
	sessionId := uuid.New()
	principal := entity.NewDevicePrincipal("device-12345", "public")

	record, err := svc.RecordViolation(context.Background(), Violation{
		Principal:     principal,
		ChatSessionId: &sessionId,
		ContentType:   constant.ContentTypeUserInput,
		Content:       "blocked text",
		Verdict:       &moderation.Verdict{Reason: "Hate Speech", Categories: map[string]float64{"hate": 0.8}},
	})
	require.NoError(t, err)

	logs := uow.logs.all()
	require.Len(t, logs, 1)
	assert.Equal(t, record.Id, logs[0].Id)
	assert.Equal(t, "anon:device-12345", logs[0].UserRef)
	assert.Equal(t, "Hate Speech", logs[0].BlockedReason)
	assert.Equal(t, time.UTC, logs[0].CreatedAt.Location())

	require.Len(t, sink.events, 1)
	evt := sink.events[0]
	assert.Equal(t, pkgEvents.ContentViolation, evt.EventType())
	assert.Equal(t, record.Id.String(), evt.Payload()["moderation_log_id"])
	assert.Equal(t, sessionId.String(), evt.Payload()["session_id"])
}

func TestRecordViolation_DefaultReasonAndWriteFailure(t *testing.T) {
	svc, uow, sink := newModerationHarness(t, &scriptedClassifier{})

	record, err := svc.RecordViolation(context.Background(), Violation{
		Principal:   entity.NewDevicePrincipal("device-12345", "public"),
		ContentType: constant.ContentTypeAiResponse,
		Content:     "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "Content policy violation", record.BlockedReason)
	assert.Nil(t, record.ChatSessionId)

	uow.logs.createErr = errBoom
	_, err = svc.RecordViolation(context.Background(), Violation{ContentType: constant.ContentTypeAiResponse})
	assert.ErrorIs(t, err, errBoom)
	assert.Len(t, sink.types(), 1, "no event for an unwritten log")
}

func TestListLogsAndStatistics(t *testing.T) {
	svc, uow, _ := newModerationHarness(t, &scriptedClassifier{})
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	seed := []*entity.ModerationLog{
		{Id: uuid.New(), UserRef: "11111111-aaaa", ContentType: constant.ContentTypeUserInput, CreatedAt: now.Add(-48 * time.Hour)},
		{Id: uuid.New(), UserRef: "11111111-aaaa", ContentType: constant.ContentTypeAiResponse, CreatedAt: now.Add(-2 * time.Hour)},
		{Id: uuid.New(), UserRef: "anon:device-1", ContentType: constant.ContentTypeUserInput, CreatedAt: now.Add(-time.Hour)},
	}
	for _, l := range seed {
		require.NoError(t, uow.logs.Create(context.Background(), l))
	}

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &dto.ModerationStatisticsResponse{
		TotalViolations:      3,
		TodayViolations:      2,
		UserInputViolations:  2,
		AiResponseViolations: 1,
	}, stats)

	query := &dto.ModerationLogQuery{PageQuery: dto.PageQuery{Limit: 1}, UserId: "1111"}
	items, total, err := svc.ListLogs(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 1)
	assert.Equal(t, seed[1].Id, items[0].Id, "newest first")

	query = &dto.ModerationLogQuery{PageQuery: dto.PageQuery{Limit: 10}, ContentType: constant.ContentTypeUserInput}
	items, total, err = svc.ListLogs(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	for _, specs := range uow.logs.countSpecs {
		for _, spec := range specs {
			_, paged := spec.(specification.Pagination)
			assert.False(t, paged, "counts must not be paginated")
		}
	}
}
