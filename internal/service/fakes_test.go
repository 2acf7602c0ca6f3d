package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/repository/contract"
	"soulscript-chat-be/internal/repository/specification"
	"soulscript-chat-be/internal/repository/unitofwork"
	"soulscript-chat-be/pkg/events"
	"soulscript-chat-be/pkg/llm"
	"soulscript-chat-be/pkg/moderation"
	"soulscript-chat-be/pkg/rag/retrieval"

	"github.com/google/uuid"
)

// fakeChatStore keeps sessions and messages in memory with the same
// conditional-write semantics as the GORM store.
type fakeChatStore struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*entity.ChatSession
	messages  map[uuid.UUID][]*entity.ChatMessage
	clock     time.Time
	appendErr error
	blockErr  error
	// logs receives the violation rows written together with a block.
	logs *fakeModerationLogRepo
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{
		sessions: map[uuid.UUID]*entity.ChatSession{},
		messages: map[uuid.UUID][]*entity.ChatMessage{},
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *fakeChatStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func cloneSession(cs *entity.ChatSession) *entity.ChatSession {
	c := *cs
	return &c
}

func (s *fakeChatStore) put(cs *entity.ChatSession) *entity.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs.Id == uuid.Nil {
		cs.Id = uuid.New()
	}
	cs.CreatedAt = s.tick()
	s.sessions[cs.Id] = cloneSession(cs)
	return cs
}

func (s *fakeChatStore) session(id uuid.UUID) *entity.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.sessions[id]
	if !ok {
		return nil
	}
	return cloneSession(cs)
}

func (s *fakeChatStore) history(id uuid.UUID) []*entity.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.ChatMessage{}, s.messages[id]...)
}

func (s *fakeChatStore) CreateSession(ctx context.Context, cs *entity.ChatSession) error {
	s.put(cs)
	return nil
}

func (s *fakeChatStore) GetOrCreateDeviceSession(ctx context.Context, cs *entity.ChatSession) (*entity.ChatSession, bool, error) {
	s.mu.Lock()
	for _, existing := range s.sessions {
		if existing.AnonDeviceId != nil && *existing.AnonDeviceId == *cs.AnonDeviceId {
			s.mu.Unlock()
			return cloneSession(existing), false, nil
		}
	}
	s.mu.Unlock()
	return s.put(cs), true, nil
}

func (s *fakeChatStore) FindSession(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	return s.session(id), nil
}

func (s *fakeChatStore) FindDeviceSession(ctx context.Context, deviceId string) (*entity.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cs := range s.sessions {
		if cs.AnonDeviceId != nil && *cs.AnonDeviceId == deviceId {
			return cloneSession(cs), nil
		}
	}
	return nil, nil
}

func (s *fakeChatStore) ListUserSessions(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.ChatSession, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var owned []*entity.ChatSession
	for _, cs := range s.sessions {
		if cs.UserId != nil && *cs.UserId == userId {
			owned = append(owned, cloneSession(cs))
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })
	total := int64(len(owned))
	if offset >= len(owned) {
		return []*entity.ChatSession{}, total, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], total, nil
}

func (s *fakeChatStore) RenameSession(ctx context.Context, id uuid.UUID, title string) (*entity.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	cs.Title = title
	return cloneSession(cs), nil
}

func (s *fakeChatStore) SetTitleIfDefault(ctx context.Context, id uuid.UUID, title, defaultTitle string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.sessions[id]
	if !ok || cs.Title != defaultTitle {
		return false, nil
	}
	cs.Title = title
	return true, nil
}

func (s *fakeChatStore) BlockSession(ctx context.Context, id uuid.UUID, reason string, violation *entity.ModerationLog) (*entity.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blockErr != nil {
		return nil, s.blockErr
	}
	cs, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	// The row goes first so a failed write leaves the session untouched.
	if violation != nil && s.logs != nil {
		if err := s.logs.Create(ctx, violation); err != nil {
			return nil, err
		}
	}
	if !cs.IsBlocked {
		at := s.tick()
		cs.IsBlocked = true
		cs.BlockedReason = reason
		cs.BlockedAt = &at
	}
	return cloneSession(cs), nil
}

func (s *fakeChatStore) DeleteSession(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.sessions[id]
	if !ok || cs.IsBlocked {
		return false, nil
	}
	delete(s.sessions, id)
	delete(s.messages, id)
	return true, nil
}

func (s *fakeChatStore) SaveSummary(ctx context.Context, id uuid.UUID, summary string, messageCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.sessions[id]; ok {
		cs.Summary = summary
		cs.SummaryMessageCount = messageCount
	}
	return nil
}

func (s *fakeChatStore) AppendMessage(ctx context.Context, m *entity.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	m.CreatedAt = s.tick()
	stored := *m
	s.messages[m.ChatSessionId] = append(s.messages[m.ChatSessionId], &stored)
	return nil
}

func (s *fakeChatStore) ListMessages(ctx context.Context, sessionId uuid.UUID, limit, offset int) ([]*entity.ChatMessage, int64, error) {
	all := s.history(sessionId)
	total := int64(len(all))
	if offset >= len(all) {
		return []*entity.ChatMessage{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *fakeChatStore) AllMessages(ctx context.Context, sessionId uuid.UUID) ([]*entity.ChatMessage, error) {
	return s.history(sessionId), nil
}

func (s *fakeChatStore) CountMessages(ctx context.Context, sessionId uuid.UUID, role string) (int64, error) {
	var n int64
	for _, m := range s.history(sessionId) {
		if role == "" || m.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *fakeChatStore) LastMessage(ctx context.Context, sessionId uuid.UUID) (*entity.ChatMessage, error) {
	all := s.history(sessionId)
	if len(all) == 0 {
		return nil, nil
	}
	return all[len(all)-1], nil
}

var _ contract.ChatStore = (*fakeChatStore)(nil)

// fakeUow serves the flag, moderation log and chunk repositories from
// memory. The session and message repositories sit behind the chat store.
type fakeUow struct {
	flags   *fakeFlagRepo
	logs    *fakeModerationLogRepo
	chunks  *fakeChunkRepo
	commits int
}

func newFakeUow() *fakeUow {
	return &fakeUow{
		flags:  &fakeFlagRepo{items: map[uuid.UUID]*entity.FeatureFlag{}},
		logs:   &fakeModerationLogRepo{},
		chunks: &fakeChunkRepo{},
	}
}

func (u *fakeUow) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return u }
func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error {
	u.commits++
	return nil
}
func (u *fakeUow) Rollback() error { return nil }

func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository { return nil }
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository { return nil }
func (u *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository { return u.chunks }
func (u *fakeUow) ModerationLogRepository() contract.ModerationLogRepository { return u.logs }
func (u *fakeUow) FeatureFlagRepository() contract.FeatureFlagRepository { return u.flags }

type fakeFlagRepo struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*entity.FeatureFlag
	findAlls int
}

func (r *fakeFlagRepo) Create(ctx context.Context, f *entity.FeatureFlag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *f
	r.items[f.Id] = &c
	return nil
}

func (r *fakeFlagRepo) Update(ctx context.Context, f *entity.FeatureFlag) error {
	return r.Create(ctx, f)
}

func (r *fakeFlagRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *fakeFlagRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FeatureFlag, error) {
	all, _ := r.find(specs)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeFlagRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FeatureFlag, error) {
	r.mu.Lock()
	r.findAlls++
	r.mu.Unlock()
	return r.find(specs)
}

func (r *fakeFlagRepo) FindByName(ctx context.Context, name string) (*entity.FeatureFlag, error) {
	return r.FindOne(ctx, specification.ByFlagName{Name: name})
}

func (r *fakeFlagRepo) find(specs []specification.Specification) ([]*entity.FeatureFlag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FeatureFlag
	for _, f := range r.items {
		if flagMatches(f, specs) {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func flagMatches(f *entity.FeatureFlag, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if f.Id != s.ID {
				return false
			}
		case specification.ByFlagName:
			if f.Name != s.Name {
				return false
			}
		case specification.EnabledFlags:
			if !f.IsEnabled {
				return false
			}
		}
	}
	return true
}

func (r *fakeFlagRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type fakeModerationLogRepo struct {
	mu        sync.Mutex
	items     []*entity.ModerationLog
	createErr error
	// Specs seen by Count, to check that counting never paginates.
	countSpecs [][]specification.Specification
}

func (r *fakeModerationLogRepo) Create(ctx context.Context, l *entity.ModerationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	c := *l
	r.items = append(r.items, &c)
	return nil
}

func (r *fakeModerationLogRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ModerationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.ModerationLog
	limit, offset := -1, 0
	desc := false
	for _, l := range r.items {
		if logMatches(l, specs) {
			c := *l
			out = append(out, &c)
		}
	}
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.Pagination:
			limit, offset = s.Limit, s.Offset
		case specification.OrderBy:
			desc = s.Desc
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []*entity.ModerationLog{}, nil
	}
	out = out[offset:]
	if limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeModerationLogRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.countSpecs = append(r.countSpecs, specs)
	var n int64
	for _, l := range r.items {
		if logMatches(l, specs) {
			n++
		}
	}
	return n, nil
}

func (r *fakeModerationLogRepo) all() []*entity.ModerationLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.ModerationLog{}, r.items...)
}

func logMatches(l *entity.ModerationLog, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByContentType:
			if l.ContentType != s.ContentType {
				return false
			}
		case specification.UserRefContains:
			if !strings.Contains(strings.ToLower(l.UserRef), strings.ToLower(s.Fragment)) {
				return false
			}
		case specification.CreatedSince:
			if l.CreatedAt.Before(s.Since) {
				return false
			}
		}
	}
	return true
}

type fakeChunkRepo struct {
	mu      sync.Mutex
	items   []*entity.DocumentChunk
	deletes []string
}

func (r *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, chunks...)
	return nil
}

func (r *fakeChunkRepo) DeleteByDocument(ctx context.Context, groupScope, documentTitle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, groupScope+"/"+documentTitle)
	kept := r.items[:0]
	for _, c := range r.items {
		if c.GroupScope != groupScope || c.DocumentTitle != documentTitle {
			kept = append(kept, c)
		}
	}
	r.items = kept
	return nil
}

func (r *fakeChunkRepo) SearchSimilar(ctx context.Context, groupScope string, embedding []float32, limit int) ([]*entity.ScoredChunk, error) {
	return nil, nil
}

// scriptedClassifier blocks any text containing one of its trigger words.
type scriptedClassifier struct {
	mu       sync.Mutex
	triggers []string
	err      error
	calls    []string
}

func (c *scriptedClassifier) Classify(ctx context.Context, text string) (*moderation.Verdict, error) {
	c.mu.Lock()
	c.calls = append(c.calls, text)
	c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	lower := strings.ToLower(text)
	for _, t := range c.triggers {
		if strings.Contains(lower, t) {
			return moderation.Evaluate(
				map[string]bool{moderation.CategoryViolence: true},
				map[string]float64{moderation.CategoryViolence: 0.97},
			), nil
		}
	}
	return &moderation.Verdict{Allowed: true}, nil
}

// fakeLLM replays a fixed reply as a stream and records the prompts it saw.
type fakeLLM struct {
	mu        sync.Mutex
	chunks    []string
	streamErr error
	startErr  error
	prompts   [][]llm.Message
	streamCtx context.Context
	// gate, when set, holds the stream open until it is closed.
	gate chan struct{}
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "summary", nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "summary", nil
}

func (f *fakeLLM) ChatStream(ctx context.Context, history []llm.Message, options ...llm.Option) (llm.Stream, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, history)
	f.streamCtx = ctx
	gate := f.gate
	f.mu.Unlock()

	if f.startErr != nil {
		return nil, f.startErr
	}
	if gate != nil {
		<-gate
	}
	return llm.NewSliceStream(f.chunks, f.streamErr), nil
}

func (f *fakeLLM) lastStreamCtx() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamCtx
}

func (f *fakeLLM) lastPrompt() []llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return nil
	}
	return f.prompts[len(f.prompts)-1]
}

// stallingSummarizer never answers; it returns once its context ends.
type stallingSummarizer struct {
	mu       sync.Mutex
	calls    int
	deadline time.Time
}

func (s *stallingSummarizer) Summarize(ctx context.Context, existing string, messages []llm.Message) (string, error) {
	s.mu.Lock()
	s.calls++
	s.deadline, _ = ctx.Deadline()
	s.mu.Unlock()

	<-ctx.Done()
	return "", ctx.Err()
}

func (s *stallingSummarizer) seen() (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, s.deadline
}

type fakeRetriever struct {
	passages []retrieval.Passage
	err      error
}

func (r *fakeRetriever) Retrieve(ctx context.Context, group, query string, limit int) ([]retrieval.Passage, error) {
	return r.passages, r.err
}

type fakeFlags struct {
	flags []*entity.FeatureFlag
}

func (f *fakeFlags) ListEnabled(ctx context.Context, group string) ([]*entity.FeatureFlag, error) {
	return f.flags, nil
}

// recordingSink captures published domain events.
type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Publish(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType())
	}
	return out
}

// countingQuota wraps a quota store and counts refunds.
type countingQuota struct {
	contract.QuotaStore
	mu      sync.Mutex
	refunds int
}

func (q *countingQuota) Refund(ctx context.Context, key string, day string) error {
	q.mu.Lock()
	q.refunds++
	q.mu.Unlock()
	return q.QuotaStore.Refund(ctx, key, day)
}

var errBoom = errors.New("boom")
