package inbox_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/mdouchement/todokernel/internal/inbox"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafka_CommitsAfterNextFetch(t *testing.T) {
	reader := &reader{messages: []kafka.Message{
		{Offset: 1, Value: []byte{0x01, 0xaa}},
		{Offset: 2, Value: []byte{0x00}},
	}}
	source := inbox.NewKafkaWithReader(reader, 20*time.Millisecond)
	ctx := context.Background()

	message, err := source.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xaa}, message)
	assert.Empty(t, reader.committed, "nothing is committed before the message is handled")

	message, err = source.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, message)
	assert.Equal(t, []int64{1}, reader.committed)

	_, err = source.Next(ctx)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []int64{1, 2}, reader.committed)

	require.NoError(t, source.Close())
	assert.True(t, reader.closed)
	assert.Equal(t, []int64{1, 2}, reader.committed)
}

func TestKafka_CloseCommitsPending(t *testing.T) {
	reader := &reader{messages: []kafka.Message{{Offset: 7, Value: []byte{0x00}}}}
	source := inbox.NewKafkaWithReader(reader, time.Second)

	_, err := source.Next(context.Background())
	require.NoError(t, err)

	require.NoError(t, source.Close())
	assert.Equal(t, []int64{7}, reader.committed)
	assert.True(t, reader.closed)
}

func TestKafka_Cancelled(t *testing.T) {
	source := inbox.NewKafkaWithReader(&reader{}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.Next(ctx)
	assert.NotEqual(t, io.EOF, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestKafka_Errors(t *testing.T) {
	broken := errors.New("broker down")

	source := inbox.NewKafkaWithReader(&reader{fetchErr: broken}, time.Second)
	_, err := source.Next(context.Background())
	assert.True(t, errors.Is(err, broken))

	r := &reader{
		messages:  []kafka.Message{{Offset: 1}, {Offset: 2}},
		commitErr: broken,
	}
	source = inbox.NewKafkaWithReader(r, time.Second)
	_, err = source.Next(context.Background())
	require.NoError(t, err)

	_, err = source.Next(context.Background())
	assert.True(t, errors.Is(err, broken))
	assert.Len(t, r.messages, 1, "no message is fetched while the previous one is not committed")
}

//
//
// Helpers
//
//

type reader struct {
	messages  []kafka.Message
	committed []int64
	closed    bool
	fetchErr  error
	commitErr error
}

func (r *reader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.fetchErr != nil {
		return kafka.Message{}, r.fetchErr
	}

	if len(r.messages) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}

	message := r.messages[0]
	r.messages = r.messages[1:]
	return message, nil
}

func (r *reader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	if r.commitErr != nil {
		return r.commitErr
	}

	for _, msg := range msgs {
		r.committed = append(r.committed, msg.Offset)
	}
	return nil
}

func (r *reader) Close() error {
	r.closed = true
	return nil
}
