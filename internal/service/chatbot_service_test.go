package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"soulscript-chat-be/internal/config"
	"soulscript-chat-be/internal/constant"
	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/pkg/apperror"
	"soulscript-chat-be/internal/pkg/logger"
	"soulscript-chat-be/internal/pkg/metrics"
	memstore "soulscript-chat-be/internal/repository/memory"
	pkgEvents "soulscript-chat-be/pkg/events"
	modEvents "soulscript-chat-be/pkg/moderation/events"
	"soulscript-chat-be/pkg/rag/memory"
	"soulscript-chat-be/pkg/rag/retrieval"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type chatHarness struct {
	cfg        config.ChatConfig
	store      *fakeChatStore
	uow        *fakeUow
	classifier *scriptedClassifier
	llm        *fakeLLM
	retriever  *fakeRetriever
	flags      *fakeFlags
	sink       *recordingSink
	metrics    *metrics.ChatMetrics
	moderation IModerationService
	svc        IChatbotService
	user       entity.Principal
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		DefaultTitle:       "New Chat",
		TitleLength:        40,
		MaxMessageChars:    4000,
		WindowBudget:       12000,
		SummaryThreshold:   6000,
		RecentTurns:        4,
		SummaryMaxMessages: 40,
		PassageLimit:       3,
		PassageMaxChars:    500,
		ModelTimeout:       5 * time.Second,
		ModerationTimeout:  5 * time.Second,
		RetrievalTimeout:   5 * time.Second,
		TurnLockTTL:        time.Minute,
		AnonDailyQuota:     3,
		AnonGroupScope:     "public",
		QuotaTimezone:      "UTC",
		FeatureFlagsTTL:    time.Minute,
	}
}

func newChatHarness(t *testing.T) *chatHarness {
	t.Helper()
	return newChatHarnessWith(t, testChatConfig(), nil)
}

// newChatHarnessWith builds the harness around cfg. A nil summarizer asks the
// fake model for summaries.
func newChatHarnessWith(t *testing.T, cfg config.ChatConfig, summarizer memory.Summarizer) *chatHarness {
	t.Helper()

	h := &chatHarness{
		cfg:        cfg,
		store:      newFakeChatStore(),
		uow:        newFakeUow(),
		classifier: &scriptedClassifier{triggers: []string{"hurt", "kill"}},
		llm:        &fakeLLM{chunks: []string{"Peace ", "be ", "with you."}},
		retriever:  &fakeRetriever{},
		flags:      &fakeFlags{},
		sink:       &recordingSink{},
		metrics:    metrics.NewChatMetrics(prometheus.NewRegistry()),
		user:       entity.NewUserPrincipal(uuid.New(), constant.PrincipalRoleUser, constant.DefaultGroupScope),
	}

	h.store.logs = h.uow.logs

	log := logger.NewNopLogger()
	h.moderation = NewModerationService(h.uow, h.classifier, modEvents.NewNatsPublisher(h.sink, log), h.metrics, log, time.Second, time.UTC)

	if summarizer == nil {
		summarizer = memory.NewLLMSummarizer(h.llm)
	}
	window := memory.NewWindow(memory.Config{
		Budget:             h.cfg.WindowBudget,
		SummaryThreshold:   h.cfg.SummaryThreshold,
		RecentTurns:        h.cfg.RecentTurns,
		SummaryMaxMessages: h.cfg.SummaryMaxMessages,
	}, summarizer, h.store, log)

	h.svc = NewChatbotService(h.store, memstore.NewTurnLock(), h.moderation, h.flags, h.retriever, window, h.llm, h.metrics, log, h.cfg)
	return h
}

func (h *chatHarness) newSession(t *testing.T) uuid.UUID {
	t.Helper()
	res, err := h.svc.CreateSession(context.Background(), h.user, &dto.CreateSessionRequest{})
	require.NoError(t, err)
	return res.Id
}

func (h *chatHarness) roles(id uuid.UUID) []string {
	var roles []string
	for _, m := range h.store.history(id) {
		roles = append(roles, m.Role)
	}
	return roles
}

// A clean turn streams tokens, stores both messages and titles the session
// from the first message.
func TestSendChat_CompletedTurn(t *testing.T) {
	h := newChatHarness(t)
	id := h.newSession(t)

	turn, err := h.svc.StartTurn(context.Background(), h.user, id, "  How can I find peace today?  ")
	require.NoError(t, err)

	var tokens []string
	var final *dto.TurnResponse
	for ev := range turn.Events {
		switch ev.Type {
		case TurnEventToken:
			require.Nil(t, final, "token after terminal event")
			tokens = append(tokens, ev.Token)
		case TurnEventDone:
			final = ev.Result
		default:
			t.Fatalf("unexpected event %s", ev.Type)
		}
	}

	require.NotNil(t, final)
	assert.Equal(t, []string{"Peace ", "be ", "with you."}, tokens)
	assert.Equal(t, metrics.OutcomeCompleted, final.Outcome)
	assert.Equal(t, "Peace be with you.", final.Reply)
	assert.Equal(t, "How can I find peace today?", final.Title)
	assert.False(t, final.IsBlocked)
	require.NotNil(t, final.UserMessage)
	require.NotNil(t, final.AssistantMessage)
	assert.Equal(t, "How can I find peace today?", final.UserMessage.Content)

	assert.Equal(t, []string{constant.ChatMessageRoleUser, constant.ChatMessageRoleAssistant}, h.roles(id))
	assert.Equal(t, "How can I find peace today?", h.store.session(id).Title)
	assert.Empty(t, h.uow.logs.all())
	assert.Empty(t, h.sink.types())
}

func TestSendChat_AutoTitleTruncates(t *testing.T) {
	h := newChatHarness(t)
	id := h.newSession(t)

	text := "I have been struggling with my prayer life for a few months now"
	res, err := h.svc.SendChat(context.Background(), h.user, id, text)
	require.NoError(t, err)
	assert.Equal(t, text[:40]+"...", res.Title)

	// Later turns keep the first title.
	res, err = h.svc.SendChat(context.Background(), h.user, id, "Any advice?")
	require.NoError(t, err)
	assert.Equal(t, text[:40]+"...", res.Title)
	assert.Equal(t, text[:40]+"...", h.store.session(id).Title)
}

func TestSendChat_AutoTitleKeepsCustomTitle(t *testing.T) {
	h := newChatHarness(t)
	res, err := h.svc.CreateSession(context.Background(), h.user, &dto.CreateSessionRequest{Title: "Evening prayers"})
	require.NoError(t, err)

	turn, err := h.svc.SendChat(context.Background(), h.user, res.Id, "Hello there")
	require.NoError(t, err)
	assert.Equal(t, "Evening prayers", turn.Title)
}

// Blocked input blocks the session, stores nothing and writes exactly one
// moderation log.
func TestSendChat_InputBlocked(t *testing.T) {
	h := newChatHarness(t)
	id := h.newSession(t)

	res, err := h.svc.SendChat(context.Background(), h.user, id, "I want to hurt someone")
	require.NoError(t, err)

	assert.Equal(t, metrics.OutcomeInputBlocked, res.Outcome)
	assert.True(t, res.IsBlocked)
	assert.Equal(t, "Violence", res.BlockedReason)
	assert.Equal(t, constant.BlockedContentMessage, res.Reply)
	assert.Nil(t, res.UserMessage)

	cs := h.store.session(id)
	assert.True(t, cs.IsBlocked)
	assert.NotEmpty(t, cs.BlockedReason)
	assert.NotNil(t, cs.BlockedAt)
	assert.Empty(t, h.store.history(id))

	logs := h.uow.logs.all()
	require.Len(t, logs, 1)
	assert.Equal(t, constant.ContentTypeUserInput, logs[0].ContentType)
	assert.Equal(t, "I want to hurt someone", logs[0].OriginalContent)
	assert.Equal(t, h.user.UserId.String(), logs[0].UserRef)
	require.NotNil(t, logs[0].ChatSessionId)
	assert.Equal(t, id, *logs[0].ChatSessionId)
	assert.InDelta(t, 0.97, logs[0].Categories["violence"], 0.0001)

	assert.Empty(t, h.llm.prompts, "model must not run for blocked input")
	assert.Equal(t, []string{pkgEvents.ChatSessionBlocked, pkgEvents.ContentViolation}, h.sink.types())
}

// A blocked reply keeps the user message, drops the reply and blocks the
// session.
func TestSendChat_OutputBlocked(t *testing.T) {
	h := newChatHarness(t)
	h.llm.chunks = []string{"You should ", "kill ", "them."}
	id := h.newSession(t)

	res, err := h.svc.SendChat(context.Background(), h.user, id, "What should I do about my neighbour?")
	require.NoError(t, err)

	assert.Equal(t, metrics.OutcomeOutputBlocked, res.Outcome)
	assert.True(t, res.IsBlocked)
	assert.Equal(t, constant.AiResponseBlockedMessage, res.Reply)
	require.NotNil(t, res.UserMessage)
	assert.Nil(t, res.AssistantMessage)

	assert.Equal(t, []string{constant.ChatMessageRoleUser}, h.roles(id))
	assert.True(t, h.store.session(id).IsBlocked)

	logs := h.uow.logs.all()
	require.Len(t, logs, 1)
	assert.Equal(t, constant.ContentTypeAiResponse, logs[0].ContentType)
	assert.Equal(t, "You should kill them.", logs[0].OriginalContent)
}

// A failed block write aborts the turn before anything is stored or
// announced, and the session stays open.
func TestSendChat_BlockWriteFailureLeavesSessionOpen(t *testing.T) {
	failure := errors.New("db down")

	tests := []struct {
		name  string
		setup func(h *chatHarness)
	}{
		{name: "session update", setup: func(h *chatHarness) { h.store.blockErr = failure }},
		{name: "moderation log", setup: func(h *chatHarness) { h.uow.logs.createErr = failure }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newChatHarness(t)
			id := h.newSession(t)
			tt.setup(h)

			_, err := h.svc.SendChat(context.Background(), h.user, id, "I want to hurt someone")
			require.Error(t, err)
			assert.ErrorIs(t, err, failure)

			cs := h.store.session(id)
			assert.False(t, cs.IsBlocked)
			assert.Empty(t, cs.BlockedReason)
			assert.Nil(t, cs.BlockedAt)

			assert.Empty(t, h.uow.logs.all())
			assert.Empty(t, h.sink.types())
			assert.Empty(t, h.store.history(id))
			assert.Empty(t, h.llm.prompts)
		})
	}
}

// A blocked session refuses turns and deletes and stays unchanged.
func TestBlockedSession_RejectsTurnAndDelete(t *testing.T) {
	h := newChatHarness(t)
	id := h.newSession(t)

	_, err := h.svc.SendChat(context.Background(), h.user, id, "Hello")
	require.NoError(t, err)
	_, err = h.svc.SendChat(context.Background(), h.user, id, "I will hurt you")
	require.NoError(t, err)

	before := h.store.session(id)
	history := h.store.history(id)

	_, err = h.svc.SendChat(context.Background(), h.user, id, "Sorry, let me try again")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInvariantViolation))

	err = h.svc.DeleteSession(context.Background(), h.user, id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInvariantViolation))
	assert.Contains(t, err.Error(), constant.BlockedSessionDeleteError)

	after := h.store.session(id)
	require.NotNil(t, after)
	assert.Equal(t, before.BlockedReason, after.BlockedReason)
	assert.Equal(t, before.BlockedAt, after.BlockedAt)
	assert.Len(t, h.store.history(id), len(history))
	assert.Len(t, h.uow.logs.all(), 1)
}

// N completed turns leave 2N alternating, strictly ordered messages.
func TestSendChat_MessageOrdering(t *testing.T) {
	h := newChatHarness(t)
	id := h.newSession(t)

	for _, text := range []string{"first", "second", "third"} {
		_, err := h.svc.SendChat(context.Background(), h.user, id, text)
		require.NoError(t, err)
	}

	history := h.store.history(id)
	require.Len(t, history, 6)
	for i, m := range history {
		expected := constant.ChatMessageRoleUser
		if i%2 == 1 {
			expected = constant.ChatMessageRoleAssistant
		}
		assert.Equal(t, expected, m.Role)
		if i > 0 {
			assert.True(t, m.CreatedAt.After(history[i-1].CreatedAt))
		}
	}
	assert.Equal(t, "second", history[2].Content)

	// The earlier turns reach the model, the new text goes last.
	prompt := h.llm.lastPrompt()
	require.Len(t, prompt, 6)
	assert.Equal(t, constant.ChatMessageRoleSystem, prompt[0].Role)
	assert.Equal(t, "first", prompt[1].Content)
	assert.Equal(t, "third", prompt[5].Content)
}

func TestSendChat_PromptIncludesPassagesAndFlags(t *testing.T) {
	h := newChatHarness(t)
	h.retriever.passages = []retrieval.Passage{{Title: "Psalms", Content: "The Lord is my shepherd", Similarity: 0.9}}
	h.flags.flags = []*entity.FeatureFlag{{Name: "Grief Support", Description: "Comfort for loss", IsEnabled: true}}
	id := h.newSession(t)

	_, err := h.svc.SendChat(context.Background(), h.user, id, "Where do I find comfort?")
	require.NoError(t, err)

	prompt := h.llm.lastPrompt()
	require.Len(t, prompt, 2)
	assert.True(t, strings.HasPrefix(prompt[0].Content, constant.ChatSystemPrompt))
	assert.Contains(t, prompt[0].Content, "- Grief Support: Comfort for loss")
	assert.Contains(t, prompt[1].Content, "From 'Psalms': The Lord is my shepherd")
	assert.True(t, strings.HasSuffix(prompt[1].Content, "User question: Where do I find comfort?"))
}

func TestStartTurn_RejectsConcurrentTurn(t *testing.T) {
	h := newChatHarness(t)
	h.llm.gate = make(chan struct{})
	id := h.newSession(t)

	first, err := h.svc.StartTurn(context.Background(), h.user, id, "first")
	require.NoError(t, err)

	_, err = h.svc.StartTurn(context.Background(), h.user, id, "second")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrTurnInProgress))

	close(h.llm.gate)
	res, err := first.Wait()
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeCompleted, res.Outcome)

	// The lock is free again once the first turn has ended.
	_, err = h.svc.SendChat(context.Background(), h.user, id, "third")
	require.NoError(t, err)
	assert.Len(t, h.store.history(id), 4)
}

// A summary that never returns is cut off at the model timeout, and the
// session stays locked for the whole turn even past the lock ttl.
func TestStartTurn_SlowSummaryKeepsTurnLock(t *testing.T) {
	cfg := testChatConfig()
	cfg.TurnLockTTL = 150 * time.Millisecond
	cfg.ModelTimeout = 600 * time.Millisecond
	cfg.SummaryThreshold = 10
	cfg.RecentTurns = 1

	summarizer := &stallingSummarizer{}
	h := newChatHarnessWith(t, cfg, summarizer)
	id := h.newSession(t)
	ctx := context.Background()

	for _, m := range []*entity.ChatMessage{
		{ChatSessionId: id, Role: constant.ChatMessageRoleUser, Content: "I lost my job last week."},
		{ChatSessionId: id, Role: constant.ChatMessageRoleAssistant, Content: "I am sorry to hear that."},
		{ChatSessionId: id, Role: constant.ChatMessageRoleUser, Content: "I feel lost."},
		{ChatSessionId: id, Role: constant.ChatMessageRoleAssistant, Content: "You are not alone."},
	} {
		require.NoError(t, h.store.AppendMessage(ctx, m))
	}

	started := time.Now()
	turn, err := h.svc.StartTurn(ctx, h.user, id, "What should I do tomorrow?")
	require.NoError(t, err)

	time.Sleep(2 * cfg.TurnLockTTL)
	_, err = h.svc.StartTurn(ctx, h.user, id, "Are you still there?")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrTurnInProgress))

	res, err := turn.Wait()
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeCompleted, res.Outcome)

	calls, deadline := summarizer.seen()
	require.Equal(t, 1, calls)
	require.False(t, deadline.IsZero(), "summary ran without a deadline")
	assert.WithinDuration(t, started.Add(cfg.ModelTimeout), deadline, 200*time.Millisecond)

	// The lock is released once the turn is over.
	_, err = h.svc.SendChat(ctx, h.user, id, "Thank you")
	require.NoError(t, err)
}

func TestSendChat_ModelFailureKeepsUserMessage(t *testing.T) {
	h := newChatHarness(t)
	h.llm.startErr = errors.New("connection refused")
	id := h.newSession(t)

	_, err := h.svc.SendChat(context.Background(), h.user, id, "Are you there?")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstreamFailure))

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.True(t, appErr.Retryable)

	assert.Equal(t, []string{constant.ChatMessageRoleUser}, h.roles(id))
	assert.False(t, h.store.session(id).IsBlocked)
	assert.Empty(t, h.uow.logs.all())

	// The session stays open for a retry.
	h.llm.startErr = nil
	res, err := h.svc.SendChat(context.Background(), h.user, id, "Are you there now?")
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeCompleted, res.Outcome)
}

func TestSendChat_BrokenStreamIsUpstreamFailure(t *testing.T) {
	h := newChatHarness(t)
	h.llm.streamErr = errors.New("unexpected EOF")
	id := h.newSession(t)

	turn, err := h.svc.StartTurn(context.Background(), h.user, id, "Tell me a story")
	require.NoError(t, err)

	var types []string
	for ev := range turn.Events {
		types = append(types, ev.Type)
		if ev.Type == TurnEventError {
			assert.Equal(t, apperror.KindUpstreamFailure, apperror.KindOf(ev.Err))
		}
	}
	assert.Equal(t, []string{TurnEventToken, TurnEventToken, TurnEventToken, TurnEventError}, types)
	assert.Len(t, h.store.history(id), 1)
}

func TestSendChat_EmptyCompletionIsUpstreamFailure(t *testing.T) {
	h := newChatHarness(t)
	h.llm.chunks = []string{"", "  "}
	id := h.newSession(t)

	_, err := h.svc.SendChat(context.Background(), h.user, id, "Hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstreamFailure))
}

func TestSendChat_ModerationOutageNeverBlocks(t *testing.T) {
	h := newChatHarness(t)
	h.classifier.err = errors.New("503 service unavailable")
	id := h.newSession(t)

	_, err := h.svc.SendChat(context.Background(), h.user, id, "Hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstreamFailure))

	assert.False(t, h.store.session(id).IsBlocked)
	assert.Empty(t, h.store.history(id))
	assert.Empty(t, h.uow.logs.all())
}

func TestSendChat_RetrievalFailure(t *testing.T) {
	h := newChatHarness(t)
	h.retriever.err = errors.New("embedding timeout")
	id := h.newSession(t)

	_, err := h.svc.SendChat(context.Background(), h.user, id, "Hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstreamFailure))
	assert.Len(t, h.store.history(id), 1)
}

func TestStartTurn_Preconditions(t *testing.T) {
	h := newChatHarness(t)
	id := h.newSession(t)
	stranger := entity.NewUserPrincipal(uuid.New(), constant.PrincipalRoleUser, constant.DefaultGroupScope)

	tests := []struct {
		name      string
		principal entity.Principal
		sessionId uuid.UUID
		text      string
		expected  error
	}{
		{name: "empty text", principal: h.user, sessionId: id, text: "   ", expected: apperror.ErrValidation},
		{name: "too long", principal: h.user, sessionId: id, text: strings.Repeat("a", 4001), expected: apperror.ErrValidation},
		{name: "unknown session", principal: h.user, sessionId: uuid.New(), text: "hi", expected: apperror.ErrNotFound},
		{name: "foreign session", principal: stranger, sessionId: id, text: "hi", expected: apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.StartTurn(context.Background(), tt.principal, tt.sessionId, tt.text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
		})
	}
	assert.Empty(t, h.store.history(id))
}

func TestStartTurn_AbandonedTurnStillPersists(t *testing.T) {
	h := newChatHarness(t)
	id := h.newSession(t)

	turn, err := h.svc.StartTurn(context.Background(), h.user, id, "Hello")
	require.NoError(t, err)
	turn.Abandon()

	require.Eventually(t, func() bool {
		return len(h.store.history(id)) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestStartTurn_SurvivesRequestCancellation(t *testing.T) {
	h := newChatHarness(t)
	id := h.newSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	turn, err := h.svc.StartTurn(ctx, h.user, id, "Hello")
	require.NoError(t, err)
	cancel()

	res, err := turn.Wait()
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeCompleted, res.Outcome)
}

type requestValueKey struct{}

// The turn keeps the caller's trace but none of its request-scoped values.
func TestStartTurn_KeepsTraceDropsRequestContext(t *testing.T) {
	h := newChatHarness(t)
	id := h.newSession(t)

	traceID := trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})

	ctx := context.WithValue(context.Background(), requestValueKey{}, "pooled request")
	ctx = trace.ContextWithRemoteSpanContext(ctx, parent)
	ctx, cancel := context.WithCancel(ctx)

	turn, err := h.svc.StartTurn(ctx, h.user, id, "Hello")
	require.NoError(t, err)
	cancel()

	_, err = turn.Wait()
	require.NoError(t, err)

	modelCtx := h.llm.lastStreamCtx()
	require.NotNil(t, modelCtx)
	assert.Nil(t, modelCtx.Value(requestValueKey{}))
	assert.Equal(t, traceID, trace.SpanContextFromContext(modelCtx).TraceID())
}

func TestSessionLifecycle(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()

	created, err := h.svc.CreateSession(ctx, h.user, &dto.CreateSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "New Chat", created.Title)
	assert.False(t, created.Anonymous)

	_, err = h.svc.CreateSession(ctx, h.user, &dto.CreateSessionRequest{Title: "Second"})
	require.NoError(t, err)

	sessions, total, err := h.svc.ListSessions(ctx, h.user, dto.PageQuery{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Second", sessions[0].Title)

	renamed, err := h.svc.RenameSession(ctx, h.user, created.Id, &dto.RenameSessionRequest{Title: "  Morning  "})
	require.NoError(t, err)
	assert.Equal(t, "Morning", renamed.Title)

	_, err = h.svc.RenameSession(ctx, h.user, created.Id, &dto.RenameSessionRequest{Title: "   "})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = h.svc.SendChat(ctx, h.user, created.Id, "Hello")
	require.NoError(t, err)

	summary, err := h.svc.GetSessionSummary(ctx, h.user, created.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.MessageCount)
	require.NotNil(t, summary.LastMessage)
	assert.Equal(t, constant.ChatMessageRoleAssistant, summary.LastMessage.Role)

	messages, total, err := h.svc.ListMessages(ctx, h.user, created.Id, dto.PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, messages, 2)

	require.NoError(t, h.svc.DeleteSession(ctx, h.user, created.Id))
	_, err = h.svc.GetSession(ctx, h.user, created.Id)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestCreateSession_RequiresSignedInUser(t *testing.T) {
	h := newChatHarness(t)
	device := entity.NewDevicePrincipal("device-12345", "public")

	_, err := h.svc.CreateSession(context.Background(), device, &dto.CreateSessionRequest{})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	_, _, err = h.svc.ListSessions(context.Background(), device, dto.PageQuery{})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}
