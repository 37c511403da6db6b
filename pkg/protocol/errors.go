package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrShortHeader     = errors.New("protocol: short header")
	ErrBadMagic        = errors.New("protocol: bad magic")
	ErrUnknownKind     = errors.New("protocol: unknown message kind")
	ErrTruncated       = errors.New("protocol: truncated payload")
	ErrCorruptPayload  = errors.New("protocol: corrupt payload")
	ErrEmptyCall       = errors.New("protocol: call payload has no operation id")
	ErrPayloadTooLarge = errors.New("protocol: payload too large")
)

// FormatError reports a buffer that is not a valid message at all.
type FormatError struct {
	Op  string // header, unpack, payload, args, result
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("protocol: format error in %s: %v", e.Op, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatErr(op string, err error) error { return &FormatError{Op: op, Err: err} }

// IntegrityError reports a payload whose CRC-32 does not match the header.
// The message must be discarded.
type IntegrityError struct {
	Want uint32 // checksum carried in the header
	Got  uint32 // checksum computed over the received payload
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("protocol: checksum mismatch: header=%08x payload=%08x", e.Want, e.Got)
}

// IsFormat reports whether err is (or wraps) a *FormatError.
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsIntegrity reports whether err is (or wraps) an *IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
