package sse

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{
			name:     "plain string",
			event:    Event{Event: "token", Data: "hello"},
			expected: "event: token\ndata: hello\n\n",
		},
		{
			name:     "json payload with id and retry",
			event:    Event{Event: "done", Data: map[string]int{"n": 1}, ID: "7", Retry: 3000},
			expected: "id: 7\nretry: 3000\nevent: done\ndata: {\"n\":1}\n\n",
		},
		{
			name:     "multi-line data",
			event:    Event{Data: "line one\nline two"},
			expected: "data: line one\ndata: line two\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := bufio.NewWriter(&buf)

			require.NoError(t, Send(w, tt.event))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestSendError(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, SendError(w, errors.New("boom")))
	assert.Equal(t, "event: error\ndata: {\"message\":\"boom\",\"type\":\"error\"}\n\n", buf.String())
}

func TestSendKeepAlive(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, SendKeepAlive(w))
	assert.Equal(t, ": ping\n\n", buf.String())
}
