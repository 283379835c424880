package main

import (
	"testing"
	"time"

	"github.com/mdouchement/todokernel/internal/inbox"
	"github.com/mdouchement/todokernel/pkg/libtodo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeOptions_Request(t *testing.T) {
	now := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	req, err := encodeOptions{
		id:     7,
		action: "create",
		user:   "alice",
		title:  "Buy milk",
		due:    "2023-11-16",
	}.request(now)
	require.NoError(t, err)
	assert.Equal(t, libtodo.ActionRequest{
		ID:     7,
		Action: libtodo.Create,
		User:   "alice",
		Record: libtodo.Record{
			Title:       "Buy milk",
			CreatedTime: now.Unix(),
			DueTime:     time.Date(2023, 11, 16, 0, 0, 0, 0, time.UTC).Unix(),
		},
	}, req)

	req, err = encodeOptions{id: 7, action: "complete", user: "alice", title: "ignored"}.request(now)
	require.NoError(t, err)
	assert.Equal(t, libtodo.ActionRequest{ID: 7, Action: libtodo.MarkComplete, User: "alice"}, req)

	req, err = encodeOptions{action: "create", created: "1700000000"}.request(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), req.Record.CreatedTime)

	_, err = encodeOptions{action: "archive"}.request(now)
	assert.Error(t, err)

	_, err = encodeOptions{action: "create", due: "not a date"}.request(now)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	req := libtodo.ActionRequest{ID: 1, Action: libtodo.MarkComplete, User: "Rayer"}

	payload, err := render(req, formatPayload)
	require.NoError(t, err)
	assert.Equal(t, "00000000000000010300000005526179657200000000000000000000000000000000000000000000000000", payload)

	message, err := render(req, formatMessage)
	require.NoError(t, err)
	assert.Equal(t, "01"+payload, message)

	input, err := render(req, formatInput)
	require.NoError(t, err)
	assert.Equal(t, `{"external":"`+payload+`"}`, input)

	messages, err := inbox.ParseInputs([]byte("[[" + input + "]]"))
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, libtodo.UserMessage(req), messages[0])

	_, err = render(req, "yaml")
	assert.EqualError(t, err, `unsupported output format "yaml"`)
}
