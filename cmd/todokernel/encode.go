package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mdouchement/todokernel/pkg/libtodo"
	"github.com/muesli/coral"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

// Output formats of the encode command.
const (
	formatPayload = "payload" // hex of the request, what the debugger calls an external message
	formatMessage = "message" // hex of the tagged inbox message
	formatInput   = "input"   // inputs.json entry
)

type encodeOptions struct {
	id        int64
	action    string
	user      string
	title     string
	created   string
	due       string
	completed bool
	owner     string
	format    string
}

var (
	encodeOpts encodeOptions
	encodeCmd  = &coral.Command{
		Use:   "encode",
		Short: "Encode a user message for the inbox",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			req, err := encodeOpts.request(time.Now())
			if err != nil {
				return err
			}

			out, err := render(req, encodeOpts.format)
			if err != nil {
				return err
			}

			fmt.Println(out)
			return nil
		},
	}
)

func init() {
	flags := encodeCmd.Flags()
	flags.Int64Var(&encodeOpts.id, "id", 0, "Record id")
	flags.StringVarP(&encodeOpts.action, "action", "a", libtodo.Create.String(), "create, read, delete or mark_complete")
	flags.StringVarP(&encodeOpts.user, "user", "u", "", "Requesting user")
	flags.StringVarP(&encodeOpts.title, "title", "t", "", "Record title")
	flags.StringVar(&encodeOpts.created, "created", "", "Creation date, any format or unix seconds (default now)")
	flags.StringVar(&encodeOpts.due, "due", "", "Due date, any format or unix seconds")
	flags.BoolVar(&encodeOpts.completed, "completed", false, "Record is completed")
	flags.StringVar(&encodeOpts.owner, "owner", "", "Record owner (default the requesting user on create)")
	flags.StringVarP(&encodeOpts.format, "format", "f", formatPayload, "Output: payload, message or input")
}

func (o encodeOptions) request(now time.Time) (libtodo.ActionRequest, error) {
	action, err := libtodo.ParseAction(o.action)
	if err != nil {
		return libtodo.ActionRequest{}, err
	}

	created := now.Unix()
	if o.created != "" {
		if created, err = timestamp(o.created); err != nil {
			return libtodo.ActionRequest{}, errors.Wrap(err, "invalid creation date")
		}
	}

	var due int64
	if o.due != "" {
		if due, err = timestamp(o.due); err != nil {
			return libtodo.ActionRequest{}, errors.Wrap(err, "invalid due date")
		}
	}

	req := libtodo.ActionRequest{
		ID:     o.id,
		Action: action,
		User:   o.user,
	}
	if action == libtodo.Create {
		req.Record = libtodo.Record{
			Title:       o.title,
			CreatedTime: created,
			DueTime:     due,
			Completed:   o.completed,
			Owner:       o.owner,
		}
	}
	return req, nil
}

func timestamp(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

func render(req libtodo.ActionRequest, format string) (string, error) {
	switch strings.ToLower(format) {
	case formatPayload:
		return hex.EncodeToString(libtodo.EncodeActionRequest(req)), nil
	case formatMessage:
		return hex.EncodeToString(libtodo.UserMessage(req)), nil
	case formatInput:
		var a fastjson.Arena
		o := a.NewObject()
		o.Set("external", a.NewString(hex.EncodeToString(libtodo.EncodeActionRequest(req))))
		return o.String(), nil
	}
	return "", errors.Errorf("unsupported output format %q", format)
}
