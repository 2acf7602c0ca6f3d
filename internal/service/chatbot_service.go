package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"soulscript-chat-be/internal/config"
	"soulscript-chat-be/internal/constant"
	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/pkg/apperror"
	"soulscript-chat-be/internal/pkg/logger"
	"soulscript-chat-be/internal/pkg/metrics"
	"soulscript-chat-be/internal/repository/contract"
	"soulscript-chat-be/pkg/llm"
	"soulscript-chat-be/pkg/moderation"
	"soulscript-chat-be/pkg/rag/memory"
	"soulscript-chat-be/pkg/rag/prompt"
	"soulscript-chat-be/pkg/rag/retrieval"
	"soulscript-chat-be/pkg/rag/session"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const turnBuffer = 32

// Turn event types, in the order a client can observe them.
const (
	TurnEventToken   = "token"
	TurnEventBlocked = "blocked"
	TurnEventDone    = "done"
	TurnEventError   = "error"
)

// TurnEvent is one item of a turn's output sequence. The sequence is a run
// of token events followed by exactly one blocked, done or error event.
type TurnEvent struct {
	Type   string
	Token  string
	Result *dto.TurnResponse
	Err    error
}

// Turn is a running chat turn. Events is closed after the terminal event.
type Turn struct {
	SessionId uuid.UUID
	Events    <-chan TurnEvent

	events    chan TurnEvent
	abandoned chan struct{}
	once      sync.Once
}

// NewTurn returns a turn that buffers up to buffer events for its reader.
func NewTurn(sessionId uuid.UUID, buffer int) *Turn {
	events := make(chan TurnEvent, buffer)
	return &Turn{
		SessionId: sessionId,
		Events:    events,
		events:    events,
		abandoned: make(chan struct{}),
	}
}

// Abandon tells the turn nobody is reading anymore. The turn still runs to
// completion and persists its outcome; only delivery stops.
func (t *Turn) Abandon() {
	t.once.Do(func() { close(t.abandoned) })
}

// Abandoned is closed once the reader has gone.
func (t *Turn) Abandoned() <-chan struct{} {
	return t.abandoned
}

// Emit delivers ev, or drops it when the turn was abandoned.
func (t *Turn) Emit(ev TurnEvent) {
	select {
	case t.events <- ev:
	case <-t.abandoned:
	}
}

// Finish closes Events. Only the producer calls it, once, after the
// terminal event.
func (t *Turn) Finish() {
	close(t.events)
}

// Wait drains the turn and returns its terminal result.
func (t *Turn) Wait() (*dto.TurnResponse, error) {
	var (
		result *dto.TurnResponse
		err    error
	)
	for ev := range t.Events {
		switch ev.Type {
		case TurnEventBlocked, TurnEventDone:
			result = ev.Result
		case TurnEventError:
			err = ev.Err
		}
	}
	if err == nil && result == nil {
		err = errors.New("turn ended without a result")
	}
	return result, err
}

type IChatbotService interface {
	CreateSession(ctx context.Context, principal entity.Principal, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	ListSessions(ctx context.Context, principal entity.Principal, page dto.PageQuery) ([]*dto.SessionResponse, int64, error)
	GetSession(ctx context.Context, principal entity.Principal, sessionId uuid.UUID) (*dto.SessionResponse, error)
	RenameSession(ctx context.Context, principal entity.Principal, sessionId uuid.UUID, req *dto.RenameSessionRequest) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, principal entity.Principal, sessionId uuid.UUID) error
	ListMessages(ctx context.Context, principal entity.Principal, sessionId uuid.UUID, page dto.PageQuery) ([]*dto.MessageResponse, int64, error)
	GetSessionSummary(ctx context.Context, principal entity.Principal, sessionId uuid.UUID) (*dto.SessionSummaryResponse, error)

	// StartTurn checks the preconditions synchronously and then runs the
	// turn in the background. A returned error means nothing was changed.
	StartTurn(ctx context.Context, principal entity.Principal, sessionId uuid.UUID, text string) (*Turn, error)
	// SendChat runs a whole turn and returns its persisted-state confirmation.
	SendChat(ctx context.Context, principal entity.Principal, sessionId uuid.UUID, text string) (*dto.TurnResponse, error)
}

type chatbotService struct {
	store     contract.ChatStore
	turnLock  contract.TurnLock
	gate      ModerationGate
	flags     FlagSource
	retriever retrieval.ContextProvider
	window    *memory.Window
	llm       llm.LLMProvider
	metrics   *metrics.ChatMetrics
	logger    logger.ILogger
	cfg       config.ChatConfig
	tracer    trace.Tracer
}

func NewChatbotService(
	store contract.ChatStore,
	turnLock contract.TurnLock,
	gate ModerationGate,
	flags FlagSource,
	retriever retrieval.ContextProvider,
	window *memory.Window,
	llmProvider llm.LLMProvider,
	chatMetrics *metrics.ChatMetrics,
	logger logger.ILogger,
	cfg config.ChatConfig,
) IChatbotService {
	return &chatbotService{
		store:     store,
		turnLock:  turnLock,
		gate:      gate,
		flags:     flags,
		retriever: retriever,
		window:    window,
		llm:       llmProvider,
		metrics:   chatMetrics,
		logger:    logger,
		cfg:       cfg,
		tracer:    otel.Tracer("soulscript-chat-be/chat"),
	}
}

func (s *chatbotService) CreateSession(ctx context.Context, principal entity.Principal, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	if principal.UserId == nil {
		return nil, apperror.Forbidden("Sign in to create chat sessions")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = s.cfg.DefaultTitle
	}

	chatSession := &entity.ChatSession{
		Id:         uuid.New(),
		UserId:     principal.UserId,
		GroupScope: principal.GroupScope,
		Title:      title,
		IsActive:   true,
	}
	if err := s.store.CreateSession(ctx, chatSession); err != nil {
		return nil, err
	}

	return toSessionResponse(chatSession), nil
}

func (s *chatbotService) ListSessions(ctx context.Context, principal entity.Principal, page dto.PageQuery) ([]*dto.SessionResponse, int64, error) {
	if principal.UserId == nil {
		return nil, 0, apperror.Forbidden("Sign in to list chat sessions")
	}
	page.Normalize()

	sessions, total, err := s.store.ListUserSessions(ctx, *principal.UserId, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}

	res := make([]*dto.SessionResponse, 0, len(sessions))
	for _, cs := range sessions {
		res = append(res, toSessionResponse(cs))
	}
	return res, total, nil
}

func (s *chatbotService) GetSession(ctx context.Context, principal entity.Principal, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	chatSession, err := s.ownedSession(ctx, principal, sessionId)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(chatSession), nil
}

func (s *chatbotService) RenameSession(ctx context.Context, principal entity.Principal, sessionId uuid.UUID, req *dto.RenameSessionRequest) (*dto.SessionResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.Validation("Title is required")
	}

	if _, err := s.ownedSession(ctx, principal, sessionId); err != nil {
		return nil, err
	}

	renamed, err := s.store.RenameSession(ctx, sessionId, title)
	if err != nil {
		return nil, err
	}
	if renamed == nil {
		return nil, apperror.NotFound("Chat session not found")
	}
	return toSessionResponse(renamed), nil
}

func (s *chatbotService) DeleteSession(ctx context.Context, principal entity.Principal, sessionId uuid.UUID) error {
	chatSession, err := s.ownedSession(ctx, principal, sessionId)
	if err != nil {
		return err
	}
	if chatSession.IsBlocked {
		return apperror.InvariantViolation(constant.BlockedSessionDeleteError)
	}

	deleted, err := s.store.DeleteSession(ctx, sessionId)
	if err != nil {
		return err
	}
	if !deleted {
		// Blocked or removed between the read and the delete.
		current, err := s.store.FindSession(ctx, sessionId)
		if err != nil {
			return err
		}
		if current != nil && current.IsBlocked {
			return apperror.InvariantViolation(constant.BlockedSessionDeleteError)
		}
		return apperror.NotFound("Chat session not found")
	}

	s.logger.Info("CHAT", "Chat session deleted", map[string]interface{}{"session_id": sessionId})
	return nil
}

func (s *chatbotService) ListMessages(ctx context.Context, principal entity.Principal, sessionId uuid.UUID, page dto.PageQuery) ([]*dto.MessageResponse, int64, error) {
	if _, err := s.ownedSession(ctx, principal, sessionId); err != nil {
		return nil, 0, err
	}
	page.Normalize()

	messages, total, err := s.store.ListMessages(ctx, sessionId, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}

	res := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, toMessageResponse(m))
	}
	return res, total, nil
}

func (s *chatbotService) GetSessionSummary(ctx context.Context, principal entity.Principal, sessionId uuid.UUID) (*dto.SessionSummaryResponse, error) {
	chatSession, err := s.ownedSession(ctx, principal, sessionId)
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountMessages(ctx, sessionId, "")
	if err != nil {
		return nil, err
	}

	last, err := s.store.LastMessage(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	res := &dto.SessionSummaryResponse{
		Session:      toSessionResponse(chatSession),
		MessageCount: count,
	}
	if last != nil {
		res.LastMessage = toMessageResponse(last)
	}
	return res, nil
}

func (s *chatbotService) SendChat(ctx context.Context, principal entity.Principal, sessionId uuid.UUID, text string) (*dto.TurnResponse, error) {
	turn, err := s.StartTurn(ctx, principal, sessionId, text)
	if err != nil {
		return nil, err
	}
	return turn.Wait()
}

func (s *chatbotService) StartTurn(ctx context.Context, principal entity.Principal, sessionId uuid.UUID, text string) (*Turn, error) {
	normalized, err := session.NormalizeTurnText(text, s.cfg.MaxMessageChars)
	if err != nil {
		s.metrics.RecordTurnRejection("validation")
		return nil, err
	}

	if _, err := s.ownedSession(ctx, principal, sessionId); err != nil {
		s.metrics.RecordTurnRejection("not_found")
		return nil, err
	}

	lockKey := "session:" + sessionId.String()
	token, ok, err := s.turnLock.Acquire(ctx, lockKey, s.cfg.TurnLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.RecordTurnRejection("turn_in_progress")
		return nil, apperror.TurnInProgress(constant.TurnInProgressError)
	}

	// Re-read under the lock: a turn that just finished may have blocked it.
	chatSession, err := s.store.FindSession(ctx, sessionId)
	if err == nil && chatSession == nil {
		err = apperror.NotFound("Chat session not found")
	}
	if err == nil && chatSession.IsBlocked {
		s.metrics.RecordTurnRejection("blocked")
		err = apperror.InvariantViolation(constant.BlockedSessionTurnError)
	}
	if err != nil {
		s.releaseLock(lockKey, token)
		return nil, err
	}

	turn := NewTurn(sessionId, turnBuffer)

	// The turn outlives the request: a disconnect must not cancel
	// moderation and persistence, and the request context may be recycled
	// once the handler returns. Only the trace parent is carried over.
	turnCtx := trace.ContextWithSpanContext(context.Background(), trace.SpanContextFromContext(ctx))
	go func() {
		defer turn.Finish()
		defer s.releaseLock(lockKey, token)
		stopRenewal := s.keepLock(lockKey, token)
		defer stopRenewal()
		s.runTurn(turnCtx, principal, chatSession, normalized, turn)
	}()

	return turn, nil
}

func (s *chatbotService) runTurn(ctx context.Context, principal entity.Principal, chatSession *entity.ChatSession, text string, turn *Turn) {
	started := time.Now()
	channel := "user"
	if principal.IsAnonymous() {
		channel = "anonymous"
	}

	ctx, span := s.tracer.Start(ctx, "chat.turn", trace.WithAttributes(
		attribute.String("chat.session_id", chatSession.Id.String()),
		attribute.String("chat.channel", channel),
	))
	defer span.End()

	outcome := s.executeTurn(ctx, principal, chatSession, text, turn)

	span.SetAttributes(attribute.String("chat.outcome", outcome))
	if outcome == metrics.OutcomeUpstreamError || outcome == metrics.OutcomeInternalError {
		span.SetStatus(codes.Error, outcome)
	}
	s.metrics.RecordTurn(channel, outcome, time.Since(started))
}

// executeTurn runs the fixed turn protocol and returns the outcome label.
func (s *chatbotService) executeTurn(ctx context.Context, principal entity.Principal, chatSession *entity.ChatSession, text string, turn *Turn) string {
	sessionId := chatSession.Id
	fail := func(outcome string, err error) string {
		s.logger.Error("CHAT", "Chat turn failed", map[string]interface{}{
			"session_id": sessionId,
			"outcome":    outcome,
			"error":      err.Error(),
		})
		turn.Emit(TurnEvent{Type: TurnEventError, Err: err})
		return outcome
	}

	// 1. Moderate input
	verdict, err := s.gate.Check(ctx, constant.ContentTypeUserInput, text)
	if err != nil {
		return fail(metrics.OutcomeUpstreamError, err)
	}
	if !verdict.Allowed {
		blocked, err := s.block(ctx, principal, chatSession, constant.ContentTypeUserInput, text, verdict)
		if err != nil {
			return fail(metrics.OutcomeInternalError, err)
		}
		turn.Emit(TurnEvent{Type: TurnEventBlocked, Result: &dto.TurnResponse{
			ChatSessionId: sessionId,
			Title:         blocked.Title,
			Outcome:       metrics.OutcomeInputBlocked,
			IsBlocked:     true,
			BlockedReason: blocked.BlockedReason,
			Reply:         constant.BlockedContentMessage,
		}})
		return metrics.OutcomeInputBlocked
	}

	// 2. Persist user message
	userMsg := &entity.ChatMessage{
		ChatSessionId: sessionId,
		Role:          constant.ChatMessageRoleUser,
		Content:       text,
	}
	if err := s.store.AppendMessage(ctx, userMsg); err != nil {
		return fail(metrics.OutcomeInternalError, err)
	}

	// 3. Auto-title
	title, err := s.autoTitle(ctx, chatSession, text)
	if err != nil {
		return fail(metrics.OutcomeInternalError, err)
	}

	// 4. Retrieve context and assemble the prompt
	messages, err := s.assemblePrompt(ctx, chatSession, userMsg)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindUpstreamFailure {
			return fail(metrics.OutcomeUpstreamError, err)
		}
		return fail(metrics.OutcomeInternalError, err)
	}

	// 5. Stream the completion
	reply, err := s.streamCompletion(ctx, messages, turn)
	if err != nil {
		return fail(metrics.OutcomeUpstreamError, err)
	}

	// 6. Moderate output
	verdict, err = s.gate.Check(ctx, constant.ContentTypeAiResponse, reply)
	if err != nil {
		return fail(metrics.OutcomeUpstreamError, err)
	}
	if !verdict.Allowed {
		blocked, err := s.block(ctx, principal, chatSession, constant.ContentTypeAiResponse, reply, verdict)
		if err != nil {
			return fail(metrics.OutcomeInternalError, err)
		}
		turn.Emit(TurnEvent{Type: TurnEventBlocked, Result: &dto.TurnResponse{
			ChatSessionId: sessionId,
			Title:         title,
			Outcome:       metrics.OutcomeOutputBlocked,
			IsBlocked:     true,
			BlockedReason: blocked.BlockedReason,
			Reply:         constant.AiResponseBlockedMessage,
			UserMessage:   toMessageResponse(userMsg),
		}})
		return metrics.OutcomeOutputBlocked
	}

	// 7. Persist assistant message
	assistantMsg := &entity.ChatMessage{
		ChatSessionId: sessionId,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       reply,
	}
	if err := s.store.AppendMessage(ctx, assistantMsg); err != nil {
		return fail(metrics.OutcomeInternalError, err)
	}

	turn.Emit(TurnEvent{Type: TurnEventDone, Result: &dto.TurnResponse{
		ChatSessionId:    sessionId,
		Title:            title,
		Outcome:          metrics.OutcomeCompleted,
		Reply:            reply,
		UserMessage:      toMessageResponse(userMsg),
		AssistantMessage: toMessageResponse(assistantMsg),
	}})
	return metrics.OutcomeCompleted
}

// block moves the session to Blocked and writes the moderation log row of the
// blocked call in the same transaction. Events go out only after the commit.
func (s *chatbotService) block(ctx context.Context, principal entity.Principal, chatSession *entity.ChatSession, contentType, content string, verdict *moderation.Verdict) (*entity.ChatSession, error) {
	sessionId := chatSession.Id
	record := s.gate.NewViolationLog(Violation{
		Principal:     principal,
		ChatSessionId: &sessionId,
		ContentType:   contentType,
		Content:       content,
		Verdict:       verdict,
	})

	blocked, err := s.store.BlockSession(ctx, sessionId, record.BlockedReason, record)
	if err != nil {
		return nil, fmt.Errorf("block session %s: %w", sessionId, err)
	}
	if blocked == nil {
		return nil, errors.New("blocked session disappeared")
	}

	s.logger.Warn("CHAT", "Chat session blocked", map[string]interface{}{
		"session_id":        sessionId,
		"user_ref":          principal.Ref(),
		"content_type":      contentType,
		"reason":            blocked.BlockedReason,
		"moderation_log_id": record.Id,
	})
	s.gate.NotifySessionBlocked(ctx, blocked, contentType)
	s.gate.ViolationRecorded(ctx, record)
	return blocked, nil
}

func (s *chatbotService) autoTitle(ctx context.Context, chatSession *entity.ChatSession, text string) (string, error) {
	if chatSession.Title != s.cfg.DefaultTitle {
		return chatSession.Title, nil
	}

	userCount, err := s.store.CountMessages(ctx, chatSession.Id, constant.ChatMessageRoleUser)
	if err != nil {
		return "", err
	}
	if userCount != 1 {
		return chatSession.Title, nil
	}

	title := session.DeriveTitle(text, s.cfg.TitleLength)
	updated, err := s.store.SetTitleIfDefault(ctx, chatSession.Id, title, s.cfg.DefaultTitle)
	if err != nil {
		return "", err
	}
	if !updated {
		return chatSession.Title, nil
	}
	chatSession.Title = title
	return title, nil
}

// assemblePrompt fetches passages, flags and the memory window in parallel.
func (s *chatbotService) assemblePrompt(ctx context.Context, chatSession *entity.ChatSession, userMsg *entity.ChatMessage) ([]llm.Message, error) {
	ctx, span := s.tracer.Start(ctx, "chat.assemble_prompt")
	defer span.End()

	var (
		passages []retrieval.Passage
		flags    []*entity.FeatureFlag
		window   *memory.Context
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rctx, cancel := context.WithTimeout(gctx, s.cfg.RetrievalTimeout)
		defer cancel()

		found, err := s.retriever.Retrieve(rctx, chatSession.GroupScope, userMsg.Content, s.cfg.PassageLimit)
		if err != nil {
			s.metrics.RecordUpstreamFailure("retrieval")
			return apperror.Upstream("Document search is temporarily unavailable. Please try again.", err)
		}
		passages = found
		return nil
	})

	g.Go(func() error {
		enabled, err := s.flags.ListEnabled(gctx, chatSession.GroupScope)
		if err != nil {
			return err
		}
		flags = enabled
		return nil
	})

	g.Go(func() error {
		// Summarization may call the model several times; it gets the same
		// bound as the reply itself.
		mctx, cancel := context.WithTimeout(gctx, s.cfg.ModelTimeout)
		defer cancel()

		history, err := s.store.AllMessages(mctx, chatSession.Id)
		if err != nil {
			return err
		}
		// The new user text goes into the prompt on its own.
		prior := make([]*entity.ChatMessage, 0, len(history))
		for _, m := range history {
			if m.Id != userMsg.Id {
				prior = append(prior, m)
			}
		}
		window = s.window.Build(mctx, chatSession, prior)
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("chat.passages", len(passages)),
		attribute.Int("chat.flags", len(flags)),
		attribute.Int("chat.window_chars", window.Size()),
	)

	return prompt.Build(prompt.Input{
		SystemPrompt: constant.ChatSystemPrompt,
		Flags:        flags,
		Passages:     retrieval.FormatPassages(passages, s.cfg.PassageMaxChars),
		Memory:       window,
		UserText:     userMsg.Content,
	}), nil
}

// streamCompletion forwards model chunks to the turn while accumulating them.
func (s *chatbotService) streamCompletion(ctx context.Context, messages []llm.Message, turn *Turn) (string, error) {
	ctx, span := s.tracer.Start(ctx, "chat.stream_completion")
	defer span.End()

	modelCtx, cancel := context.WithTimeout(ctx, s.cfg.ModelTimeout)
	defer cancel()

	started := time.Now()
	stream, err := s.llm.ChatStream(modelCtx, messages)
	if err != nil {
		s.metrics.RecordUpstreamFailure("llm")
		span.RecordError(err)
		return "", apperror.Upstream("The assistant is temporarily unavailable. Please try again.", err)
	}
	defer stream.Close()

	s.metrics.StreamStarted()
	defer s.metrics.StreamFinished()

	var reply strings.Builder
	first := true
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.metrics.RecordUpstreamFailure("llm")
			span.RecordError(err)
			return "", apperror.Upstream("The assistant stopped responding. Please try again.", err)
		}
		if chunk == "" {
			continue
		}
		if first {
			s.metrics.RecordFirstToken(time.Since(started))
			first = false
		}
		reply.WriteString(chunk)
		turn.Emit(TurnEvent{Type: TurnEventToken, Token: chunk})
	}

	if strings.TrimSpace(reply.String()) == "" {
		s.metrics.RecordUpstreamFailure("llm")
		return "", apperror.Upstream("The assistant returned an empty response. Please try again.", errors.New("empty completion"))
	}

	span.SetAttributes(attribute.Int("chat.reply_chars", reply.Len()))
	return reply.String(), nil
}

func (s *chatbotService) ownedSession(ctx context.Context, principal entity.Principal, sessionId uuid.UUID) (*entity.ChatSession, error) {
	chatSession, err := s.store.FindSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	// Foreign sessions look missing.
	if chatSession == nil || !chatSession.OwnedBy(principal) {
		return nil, apperror.NotFound("Chat session not found")
	}
	return chatSession, nil
}

// keepLock extends the turn lock every third of its ttl until the returned
// stop function is called.
func (s *chatbotService) keepLock(key, token string) (stop func()) {
	ttl := s.cfg.TurnLockTTL
	interval := ttl / 3
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				held, err := s.turnLock.Extend(ctx, key, token, ttl)
				cancel()
				if err != nil {
					s.logger.Warn("CHAT", "Failed to extend turn lock", map[string]interface{}{"key": key, "error": err.Error()})
					continue
				}
				if !held {
					s.logger.Error("CHAT", "Turn lock lost while the turn was running", map[string]interface{}{"key": key})
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

func (s *chatbotService) releaseLock(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.turnLock.Release(ctx, key, token); err != nil {
		s.logger.Warn("CHAT", "Failed to release turn lock", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func toSessionResponse(cs *entity.ChatSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:            cs.Id,
		Title:         cs.Title,
		IsBlocked:     cs.IsBlocked,
		BlockedReason: cs.BlockedReason,
		BlockedAt:     cs.BlockedAt,
		IsActive:      cs.IsActive,
		Anonymous:     cs.IsAnonymous(),
		CreatedAt:     cs.CreatedAt,
		UpdatedAt:     cs.UpdatedAt,
	}
}

func toMessageResponse(m *entity.ChatMessage) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:            m.Id,
		ChatSessionId: m.ChatSessionId,
		Role:          m.Role,
		Content:       m.Content,
		CreatedAt:     m.CreatedAt,
	}
}
