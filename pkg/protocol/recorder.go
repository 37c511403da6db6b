package protocol

import "errors"

// Recorder receives codec events. observability.CodecMetrics implements it
// with Prometheus counters.
type Recorder interface {
	Encoded(kind Kind, wireBytes int, compressed bool)
	Decoded(kind Kind, wireBytes int)
	Rejected(err error)
}

type nopRecorder struct{}

func (nopRecorder) Encoded(Kind, int, bool) {}
func (nopRecorder) Decoded(Kind, int)       {}
func (nopRecorder) Rejected(error)          {}

// RejectReason buckets a decode error into a short label.
func RejectReason(err error) string {
	switch {
	case err == nil:
		return ""
	case IsIntegrity(err):
		return "checksum"
	case errors.Is(err, ErrShortHeader):
		return "short_header"
	case errors.Is(err, ErrBadMagic):
		return "bad_magic"
	case errors.Is(err, ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, ErrTruncated):
		return "truncated"
	case errors.Is(err, ErrPayloadTooLarge):
		return "too_large"
	case errors.Is(err, ErrCorruptPayload):
		return "corrupt_payload"
	case errors.Is(err, ErrEmptyCall):
		return "empty_call"
	case IsFormat(err):
		return "malformed"
	}
	return "other"
}
