// Package memory builds the bounded conversational context of a session:
// the last K turns verbatim plus a running synopsis of everything older.
package memory

import (
	"context"
	"unicode/utf8"

	"soulscript-chat-be/internal/constant"
	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/pkg/logger"
	"soulscript-chat-be/pkg/llm"

	"github.com/google/uuid"
)

// Config sizes are measured in characters.
type Config struct {
	Budget             int
	SummaryThreshold   int
	RecentTurns        int
	SummaryMaxMessages int
}

type Summarizer interface {
	// Summarize folds messages into the existing summary.
	Summarize(ctx context.Context, existing string, messages []llm.Message) (string, error)
}

// SummaryStore persists the synopsis together with the number of leading
// messages it covers.
type SummaryStore interface {
	SaveSummary(ctx context.Context, id uuid.UUID, summary string, messageCount int) error
}

// Context is the memory part of a prompt.
type Context struct {
	Summary  string
	Messages []llm.Message
}

func (c *Context) Size() int {
	size := utf8.RuneCountInString(c.Summary)
	for _, m := range c.Messages {
		size += utf8.RuneCountInString(m.Content)
	}
	return size
}

type Window struct {
	cfg        Config
	summarizer Summarizer
	store      SummaryStore
	logger     logger.ILogger
}

func NewWindow(cfg Config, summarizer Summarizer, store SummaryStore, log logger.ILogger) *Window {
	if cfg.RecentTurns < 1 {
		cfg.RecentTurns = 1
	}
	if cfg.SummaryMaxMessages < 1 {
		cfg.SummaryMaxMessages = 40
	}
	return &Window{
		cfg:        cfg,
		summarizer: summarizer,
		store:      store,
		logger:     log,
	}
}

// Build returns the context for session given its full chronological
// history. The result never exceeds the configured budget.
func (w *Window) Build(ctx context.Context, session *entity.ChatSession, history []*entity.ChatMessage) *Context {
	messages := toLLMMessages(history)

	total := 0
	for _, m := range messages {
		total += utf8.RuneCountInString(m.Content)
	}

	if total <= w.cfg.SummaryThreshold {
		return w.fit(&Context{}, splitTurns(messages))
	}

	turns := splitTurns(messages)
	keep := w.cfg.RecentTurns
	if keep > len(turns) {
		keep = len(turns)
	}
	recent := turns[len(turns)-keep:]

	prefix := 0
	for _, t := range turns[:len(turns)-keep] {
		prefix += len(t)
	}

	summary := w.summaryFor(ctx, session, messages, prefix)
	return w.fit(&Context{Summary: summary}, recent)
}

// summaryFor returns a synopsis of messages[:prefix], extending the
// persisted one when it covers fewer messages.
func (w *Window) summaryFor(ctx context.Context, session *entity.ChatSession, messages []llm.Message, prefix int) string {
	covered := session.SummaryMessageCount
	existing := session.Summary

	if prefix == 0 {
		return ""
	}
	if covered == prefix {
		return existing
	}
	if covered > prefix {
		// The recent window grew past the stored synopsis; rebuild from scratch.
		covered = 0
		existing = ""
	}

	summary := existing
	for start := covered; start < prefix; start += w.cfg.SummaryMaxMessages {
		end := start + w.cfg.SummaryMaxMessages
		if end > prefix {
			end = prefix
		}

		next, err := w.summarizer.Summarize(ctx, summary, messages[start:end])
		if err != nil {
			w.logger.Warn("MemoryWindow", "Summarization failed, using stale summary", map[string]interface{}{
				"session_id": session.Id,
				"covered":    session.SummaryMessageCount,
				"wanted":     prefix,
				"error":      err.Error(),
			})
			if session.SummaryMessageCount <= prefix {
				return session.Summary
			}
			return ""
		}
		summary = next
	}

	if err := w.store.SaveSummary(ctx, session.Id, summary, prefix); err != nil {
		w.logger.Warn("MemoryWindow", "Failed to persist summary", map[string]interface{}{
			"session_id": session.Id,
			"error":      err.Error(),
		})
	} else {
		session.Summary = summary
		session.SummaryMessageCount = prefix
	}
	return summary
}

// fit drops the oldest turns, then shortens the summary, then clips the
// remaining messages from the front until the context is within budget.
func (w *Window) fit(c *Context, turns [][]llm.Message) *Context {
	budget := w.cfg.Budget

	size := func() int {
		n := utf8.RuneCountInString(c.Summary)
		for _, t := range turns {
			for _, m := range t {
				n += utf8.RuneCountInString(m.Content)
			}
		}
		return n
	}

	for len(turns) > 1 && size() > budget {
		turns = turns[1:]
	}

	if excess := size() - budget; excess > 0 && c.Summary != "" {
		keep := utf8.RuneCountInString(c.Summary) - excess
		if keep < 0 {
			keep = 0
		}
		c.Summary = string([]rune(c.Summary)[:keep])
	}

	for _, t := range turns {
		c.Messages = append(c.Messages, t...)
	}

	for i := range c.Messages {
		excess := c.Size() - budget
		if excess <= 0 {
			break
		}
		content := []rune(c.Messages[i].Content)
		if excess > len(content) {
			excess = len(content)
		}
		c.Messages[i].Content = string(content[excess:])
	}

	return c
}

// splitTurns groups messages so each turn starts at a user message.
func splitTurns(messages []llm.Message) [][]llm.Message {
	var turns [][]llm.Message
	for _, m := range messages {
		if m.Role == constant.ChatMessageRoleUser || len(turns) == 0 {
			turns = append(turns, []llm.Message{m})
			continue
		}
		turns[len(turns)-1] = append(turns[len(turns)-1], m)
	}
	return turns
}

func toLLMMessages(history []*entity.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
