package libtodo_test

import (
	"encoding/hex"
	"testing"

	"github.com/mdouchement/todokernel/pkg/libtodo"
	"github.com/pkg/errors"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_RoundTrip(t *testing.T) {
	records := []libtodo.Record{
		{},
		{Title: "Buy milk", CreatedTime: 1700000000, DueTime: 1700086400, Owner: "alice"},
		{Title: "Ünïcødé ✓", CreatedTime: -42, DueTime: -1, Completed: true, Owner: "bob"},
		{Title: string(make([]byte, 300)), CreatedTime: 1<<63 - 1, DueTime: -1 << 63},
	}

	for _, r := range records {
		decoded, err := libtodo.DecodeRecord(libtodo.EncodeRecord(r))
		assert.NoError(t, err)
		assert.Equal(t, r, decoded)
	}
}

func TestActionRequest_RoundTrip(t *testing.T) {
	requests := []libtodo.ActionRequest{
		{ID: 1, Action: libtodo.Create, User: "alice", Record: libtodo.Record{Title: "title"}},
		{ID: -5, Action: libtodo.Read, User: "bob"},
		{ID: 0, Action: libtodo.Delete},
		{ID: 1<<63 - 1, Action: libtodo.MarkComplete, User: "Rayer", Record: libtodo.Record{Completed: true, Owner: "x"}},
	}

	for _, req := range requests {
		decoded, err := libtodo.DecodeActionRequest(libtodo.EncodeActionRequest(req))
		assert.NoError(t, err)
		assert.Equal(t, req, decoded)
	}
}

func TestEncodeActionRequest_Golden(t *testing.T) {
	g := goldie.New(t)

	req := libtodo.ActionRequest{
		ID:     1,
		Action: libtodo.MarkComplete,
		User:   "Rayer",
	}
	g.Assert(t, "mark_complete_request", []byte(hex.EncodeToString(libtodo.EncodeActionRequest(req))))
}

func TestUserMessage_Golden(t *testing.T) {
	g := goldie.New(t)

	req := libtodo.ActionRequest{
		ID:     7,
		Action: libtodo.Create,
		User:   "alice",
		Record: libtodo.Record{
			Title:       "Buy milk",
			CreatedTime: 1700000000,
			DueTime:     1700086400,
		},
	}
	message := libtodo.UserMessage(req)
	assert.Equal(t, libtodo.TagUser, message[0])
	g.Assert(t, "create_message", []byte(hex.EncodeToString(message)))
}

func TestDecodeActionRequest_UnknownAction(t *testing.T) {
	payload := libtodo.EncodeActionRequest(libtodo.ActionRequest{ID: 1, Action: libtodo.Read, User: "alice"})
	payload[8] = 4

	req, err := libtodo.DecodeActionRequest(payload)
	assert.True(t, errors.Is(err, libtodo.ErrUnknownAction))
	assert.Equal(t, libtodo.ActionRequest{}, req)

	var derr *libtodo.DecodeError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "action", derr.Field)
	assert.Equal(t, 8, derr.Offset)
}

func TestDecodeActionRequest_Truncated(t *testing.T) {
	payload := libtodo.EncodeActionRequest(libtodo.ActionRequest{
		ID:     1,
		Action: libtodo.Create,
		User:   "alice",
		Record: libtodo.Record{Title: "title", Owner: "alice"},
	})

	for n := 0; n < len(payload); n++ {
		_, err := libtodo.DecodeActionRequest(payload[:n])
		assert.True(t, errors.Is(err, libtodo.ErrTruncated), "prefix of %d bytes", n)
		assert.True(t, libtodo.IsDecodeError(err))
	}
}

func TestDecodeRecord_DeclaredLengthTooLarge(t *testing.T) {
	payload := libtodo.EncodeRecord(libtodo.Record{Title: "abc"})
	payload[0], payload[1], payload[2], payload[3] = 0xff, 0xff, 0xff, 0xff

	_, err := libtodo.DecodeRecord(payload)
	assert.True(t, errors.Is(err, libtodo.ErrTruncated))
}

func TestDecodeRecord_InvalidUTF8(t *testing.T) {
	payload := libtodo.EncodeRecord(libtodo.Record{Title: "abc"})
	payload[4] = 0xff

	_, err := libtodo.DecodeRecord(payload)
	assert.True(t, errors.Is(err, libtodo.ErrInvalidUTF8))
}

func TestDecodeRecord_Bool(t *testing.T) {
	payload := libtodo.EncodeRecord(libtodo.Record{Title: "a"})
	at := 4 + 1 + 8 + 8

	payload[at] = 0xff
	r, err := libtodo.DecodeRecord(payload)
	assert.NoError(t, err)
	assert.True(t, r.Completed)

	payload[at] = 0x02
	_, err = libtodo.DecodeRecord(payload)
	assert.True(t, errors.Is(err, libtodo.ErrInvalidBool))
}

func TestDecodeRecord_TrailingBytes(t *testing.T) {
	payload := append(libtodo.EncodeRecord(libtodo.Record{Title: "a"}), 0x00)

	_, err := libtodo.DecodeRecord(payload)
	assert.True(t, errors.Is(err, libtodo.ErrTrailingBytes))
}

func TestParseAction(t *testing.T) {
	for _, a := range []libtodo.Action{libtodo.Create, libtodo.Read, libtodo.Delete, libtodo.MarkComplete} {
		parsed, err := libtodo.ParseAction(a.String())
		assert.NoError(t, err)
		assert.Equal(t, a, parsed)
	}

	a, err := libtodo.ParseAction(" Complete ")
	assert.NoError(t, err)
	assert.Equal(t, libtodo.MarkComplete, a)

	_, err = libtodo.ParseAction("update")
	assert.Error(t, err)

	assert.Equal(t, "action(9)", libtodo.Action(9).String())
}
