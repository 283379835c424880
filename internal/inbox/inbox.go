package inbox

import (
	"context"
	"io"

	"github.com/mdouchement/todokernel/internal/config"
	"github.com/pkg/errors"
)

// A Source delivers inbox messages in order and reports io.EOF once exhausted.
type Source interface {
	// Next returns the next message or io.EOF.
	Next(ctx context.Context) ([]byte, error)
	// Close releases the source.
	Close() error
}

// Open returns the source described by the given configuration.
func Open(cfg config.Inbox) (Source, error) {
	switch cfg.Kind {
	case "file":
		return ReadFile(cfg.Path)
	case "kafka":
		return NewKafka(cfg.Kafka), nil
	}
	return nil, errors.Errorf("unsupported inbox kind %q", cfg.Kind)
}

// A Slice is an in-memory source.
type Slice struct {
	messages [][]byte
}

// NewSlice returns a source delivering the given messages.
func NewSlice(messages ...[]byte) *Slice {
	return &Slice{messages: messages}
}

// Len returns the number of pending messages.
func (s *Slice) Len() int {
	return len(s.messages)
}

// Next returns the next message or io.EOF.
func (s *Slice) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(s.messages) == 0 {
		return nil, io.EOF
	}

	message := s.messages[0]
	s.messages[0] = nil
	s.messages = s.messages[1:]
	return message, nil
}

// Close drops the pending messages.
func (s *Slice) Close() error {
	s.messages = nil
	return nil
}
