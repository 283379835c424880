package kernel

import (
	"context"
	"fmt"
	"io"

	"github.com/gofrs/uuid"
	"github.com/mdouchement/todokernel/pkg/libtodo"
	"github.com/pkg/errors"
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
)

// DefaultMaxMessageSize is the largest accepted inbox message, tag included.
const DefaultMaxMessageSize = 2048

// ErrMessageTooLarge is returned for messages above the configured size.
var ErrMessageTooLarge = errors.New("message too large")

// A MessageKind classifies an inbox message by its tag byte.
type MessageKind int

// Message kinds.
const (
	KindKernel MessageKind = iota + 1
	KindUser
	KindUnknown
)

func (k MessageKind) String() string {
	switch k {
	case KindKernel:
		return "kernel"
	case KindUser:
		return "user"
	case KindUnknown:
		return "unknown"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// A MessageSource delivers inbox messages in order.
type MessageSource interface {
	// Next returns the next message or io.EOF when the inbox is exhausted.
	Next(ctx context.Context) ([]byte, error)
}

// Stats counts what a run has done.
type Stats struct {
	Messages  int
	Kernel    int
	Applied   int
	Failed    int
	Discarded int
}

// A Kernel drains a message source into an engine.
type Kernel struct {
	source         MessageSource
	engine         *Engine
	log            logrus.FieldLogger
	maxMessageSize int
}

// An Option configures a Kernel.
type Option func(*Kernel)

// WithLogger sets the logger used by the kernel.
func WithLogger(log logrus.FieldLogger) Option {
	return func(k *Kernel) {
		k.log = log
	}
}

// WithMaxMessageSize sets the largest accepted message.
func WithMaxMessageSize(n int) Option {
	return func(k *Kernel) {
		if n > 0 {
			k.maxMessageSize = n
		}
	}
}

// New returns a Kernel pulling messages from source.
func New(source MessageSource, engine *Engine, opts ...Option) *Kernel {
	k := &Kernel{
		source:         source,
		engine:         engine,
		log:            logrus.StandardLogger(),
		maxMessageSize: DefaultMaxMessageSize,
	}

	for _, opt := range opts {
		opt(k)
	}

	return k
}

// Run processes messages until the source is exhausted.
// It stops early when ctx is done or when the source fails.
func (k *Kernel) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	log := k.log.WithField("run", uuid.Must(uuid.NewV4()).String())
	defer func() {
		log.WithFields(logrus.Fields{
			"messages":  stats.Messages,
			"applied":   stats.Applied,
			"failed":    stats.Failed,
			"discarded": stats.Discarded,
		}).Debug("end of kernel run")
	}()

	for seq := 0; ; seq++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		message, err := k.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			log.WithError(err).Error("could not read inbox")
			return stats, errors.Wrap(err, "could not read inbox")
		}

		stats.Messages++
		mlog := log.WithFields(logrus.Fields{
			"seq":  seq,
			"size": len(message),
		})
		mlog.Debug("next message")

		outcome, err := k.Handle(ctx, message)
		if err != nil {
			stats.Failed++
			mlog.WithError(err).WithField("kind", outcome.Kind).Error("could not handle message")
			continue
		}

		switch outcome.Kind {
		case KindKernel:
			stats.Kernel++
			mlog.Debug("kernel message")
		case KindUser:
			stats.Applied++
			k.observe(mlog, outcome)
		case KindUnknown:
			stats.Discarded++
			mlog.WithField("tag", tag(message)).Warn("unknown message discarded")
		}
	}
}

// Handle processes a single inbox message.
func (k *Kernel) Handle(ctx context.Context, message []byte) (Outcome, error) {
	if len(message) > k.maxMessageSize {
		return Outcome{Kind: KindUnknown}, errors.Wrapf(ErrMessageTooLarge, "%d bytes", len(message))
	}

	if len(message) == 0 {
		return Outcome{Kind: KindUnknown}, nil
	}

	switch message[0] {
	case libtodo.TagKernel:
		return Outcome{Kind: KindKernel}, nil
	case libtodo.TagUser:
		req, err := libtodo.DecodeActionRequest(message[1:])
		if err != nil {
			return Outcome{Kind: KindUser}, errors.Wrap(err, "could not decode user message")
		}
		return k.engine.Apply(ctx, req)
	}

	return Outcome{Kind: KindUnknown}, nil
}

func (k *Kernel) observe(log logrus.FieldLogger, outcome Outcome) {
	log = log.WithFields(logrus.Fields{
		"action": outcome.Action,
		"path":   outcome.Path,
	})
	log.Info("action applied")

	if outcome.Action == libtodo.Read && outcome.Record != nil {
		log.Debug("read record: " + litter.Sdump(*outcome.Record))
	}
}

func tag(message []byte) string {
	if len(message) == 0 {
		return "none"
	}
	return fmt.Sprintf("0x%02x", message[0])
}
