package llm

import (
	"errors"
	"io"
	"strings"
)

// Stream is a finite, ordered, non-restartable sequence of text chunks.
// Recv returns io.EOF once the model signalled the end of the completion;
// any other error means the completion was cut short.
type Stream interface {
	Recv() (string, error)
	Close() error
}

var ErrStreamClosed = errors.New("llm: stream closed")

type sliceStream struct {
	chunks []string
	pos    int
	err    error
	closed bool
}

// NewSliceStream replays fixed chunks. If err is non-nil it is returned
// after the last chunk instead of io.EOF.
func NewSliceStream(chunks []string, err error) Stream {
	return &sliceStream{chunks: chunks, err: err}
}

func (s *sliceStream) Recv() (string, error) {
	if s.closed {
		return "", ErrStreamClosed
	}
	if s.pos < len(s.chunks) {
		chunk := s.chunks[s.pos]
		s.pos++
		return chunk, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

// Collect drains a stream into a single string and closes it.
func Collect(stream Stream) (string, error) {
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(chunk)
	}
}
