package libtodo

import (
	"fmt"

	"github.com/pkg/errors"
)

// Decoding failures.
var (
	ErrUnknownAction = errors.New("unknown action")
	ErrTruncated     = errors.New("truncated input")
	ErrInvalidUTF8   = errors.New("invalid utf-8 text")
	ErrInvalidBool   = errors.New("invalid boolean")
	ErrTrailingBytes = errors.New("trailing bytes")
)

// Sealing failures.
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrMalformed            = errors.New("malformed ciphertext")
)

// A DecodeError is returned when a binary payload does not match the wire format.
// Use errors.Is with one of the ErrXxx decoding values to get its kind.
type DecodeError struct {
	Field  string
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at offset %d: %s", e.Field, e.Offset, e.Err)
}

// Unwrap returns the kind of the error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// A CryptoError is returned when a sealed payload cannot be opened.
type CryptoError struct {
	Err error
}

func (e *CryptoError) Error() string {
	return "open: " + e.Err.Error()
}

// Unwrap returns the kind of the error.
func (e *CryptoError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if err is or wraps a DecodeError.
func IsDecodeError(err error) bool {
	var derr *DecodeError
	return errors.As(err, &derr)
}

// IsCryptoError returns true if err is or wraps a CryptoError.
func IsCryptoError(err error) bool {
	var cerr *CryptoError
	return errors.As(err, &cerr)
}
