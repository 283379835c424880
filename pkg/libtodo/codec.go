package libtodo

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// Message tags, the first byte of every inbox message.
const (
	TagKernel byte = 0x00
	TagUser   byte = 0x01
)

const (
	boolFalse       byte = 0x00
	boolTrue        byte = 0x01
	boolLegacyTrue  byte = 0xff // data-encoding's true
	stringPrefixLen      = 4
	int64Len             = 8
)

// EncodeRecord returns the binary form of r.
func EncodeRecord(r Record) []byte {
	var e encoder
	e.record(r)
	return e.buf
}

// DecodeRecord parses a binary record.
func DecodeRecord(b []byte) (Record, error) {
	d := decoder{buf: b}
	r, err := d.record()
	if err != nil {
		return Record{}, err
	}
	if err = d.finish(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// EncodeActionRequest returns the binary form of req.
func EncodeActionRequest(req ActionRequest) []byte {
	var e encoder
	e.int64(req.ID)
	e.byte(byte(req.Action))
	e.string(req.User)
	e.record(req.Record)
	return e.buf
}

// DecodeActionRequest parses a binary action request.
func DecodeActionRequest(b []byte) (ActionRequest, error) {
	var req ActionRequest
	var err error
	d := decoder{buf: b}

	if req.ID, err = d.int64("id"); err != nil {
		return ActionRequest{}, err
	}
	if req.Action, err = d.action(); err != nil {
		return ActionRequest{}, err
	}
	if req.User, err = d.string("user"); err != nil {
		return ActionRequest{}, err
	}
	if req.Record, err = d.record(); err != nil {
		return ActionRequest{}, err
	}
	if err = d.finish(); err != nil {
		return ActionRequest{}, err
	}
	return req, nil
}

// UserMessage returns the inbox message carrying req.
func UserMessage(req ActionRequest) []byte {
	return append([]byte{TagUser}, EncodeActionRequest(req)...)
}

////
///
//

type encoder struct {
	buf []byte
}

func (e *encoder) record(r Record) {
	e.string(r.Title)
	e.int64(r.CreatedTime)
	e.int64(r.DueTime)
	e.bool(r.Completed)
	e.string(r.Owner)
}

func (e *encoder) byte(c byte) {
	e.buf = append(e.buf, c)
}

func (e *encoder) bool(v bool) {
	if v {
		e.byte(boolTrue)
		return
	}
	e.byte(boolFalse)
}

func (e *encoder) int64(v int64) {
	e.buf = binary.BigEndian.AppendUint64(e.buf, uint64(v))
}

func (e *encoder) string(s string) {
	if uint64(len(s)) > math.MaxUint32 {
		panic("libtodo: string too long to encode")
	}
	e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(len(s)))
	e.buf = append(e.buf, s...)
}

////
///
//

type decoder struct {
	buf []byte
	off int
}

func (d *decoder) fail(field string, err error) error {
	return &DecodeError{Field: field, Offset: d.off, Err: err}
}

func (d *decoder) take(field string, n int) ([]byte, error) {
	if n < 0 || n > len(d.buf)-d.off {
		return nil, d.fail(field, ErrTruncated)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) record() (Record, error) {
	var r Record
	var err error

	if r.Title, err = d.string("title"); err != nil {
		return Record{}, err
	}
	if r.CreatedTime, err = d.int64("created_time"); err != nil {
		return Record{}, err
	}
	if r.DueTime, err = d.int64("due_time"); err != nil {
		return Record{}, err
	}
	if r.Completed, err = d.bool("completed"); err != nil {
		return Record{}, err
	}
	if r.Owner, err = d.string("owner"); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (d *decoder) int64(field string) (int64, error) {
	b, err := d.take(field, int64Len)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (d *decoder) bool(field string) (bool, error) {
	b, err := d.take(field, 1)
	if err != nil {
		return false, err
	}

	switch b[0] {
	case boolFalse:
		return false, nil
	case boolTrue, boolLegacyTrue:
		return true, nil
	}
	d.off--
	return false, d.fail(field, ErrInvalidBool)
}

func (d *decoder) action() (Action, error) {
	b, err := d.take("action", 1)
	if err != nil {
		return 0, err
	}

	a := Action(b[0])
	if !a.Valid() {
		d.off--
		return 0, d.fail("action", ErrUnknownAction)
	}
	return a, nil
}

func (d *decoder) string(field string) (string, error) {
	prefix, err := d.take(field, stringPrefixLen)
	if err != nil {
		return "", err
	}

	n := binary.BigEndian.Uint32(prefix)
	if uint64(n) > uint64(len(d.buf)-d.off) {
		return "", d.fail(field, ErrTruncated)
	}

	b, _ := d.take(field, int(n))
	if !utf8.Valid(b) {
		d.off -= int(n)
		return "", d.fail(field, ErrInvalidUTF8)
	}
	return string(b), nil
}

func (d *decoder) finish() error {
	if d.off != len(d.buf) {
		return d.fail("end", ErrTrailingBytes)
	}
	return nil
}
