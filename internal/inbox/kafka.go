package inbox

import (
	"context"
	"io"
	"time"

	"github.com/mdouchement/todokernel/internal/config"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// A Kafka source consumes a topic as inbox.
// The inbox is considered exhausted when no message arrives during the idle timeout.
// A message is committed once the next one is requested, so it is only
// acknowledged after the kernel has handled it.
type Kafka struct {
	reader  KafkaReader
	idle    time.Duration
	pending *kafka.Message
}

// A KafkaReader is the consumer side of a *kafka.Reader.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafka returns a new Kafka source consuming the configured topic.
func NewKafka(cfg config.Kafka) *Kafka {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.Group,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return NewKafkaWithReader(reader, cfg.IdleTimeout)
}

// NewKafkaWithReader returns a new Kafka source on top of the given reader.
func NewKafkaWithReader(reader KafkaReader, idle time.Duration) *Kafka {
	return &Kafka{
		reader: reader,
		idle:   idle,
	}
}

// Next returns the next message or io.EOF.
func (s *Kafka) Next(ctx context.Context) ([]byte, error) {
	if err := s.commit(ctx); err != nil {
		return nil, err
	}

	fctx := ctx
	if s.idle > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, s.idle)
		defer cancel()
	}

	msg, err := s.reader.FetchMessage(fctx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "could not fetch message")
	}

	s.pending = &msg
	return msg.Value, nil
}

// Close commits the last handled message and closes the reader.
func (s *Kafka) Close() error {
	// Best effort, the reader is closed anyway.
	err := s.commit(context.Background())
	if cerr := s.reader.Close(); cerr != nil {
		return errors.Wrap(cerr, "could not close reader")
	}
	return err
}

func (s *Kafka) commit(ctx context.Context) error {
	if s.pending == nil {
		return nil
	}

	if err := s.reader.CommitMessages(ctx, *s.pending); err != nil {
		return errors.Wrap(err, "could not commit message")
	}
	s.pending = nil
	return nil
}
