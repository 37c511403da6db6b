package protocol

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"time"
)

// Message is one EKU: a fixed header plus the transmitted payload.
//
// The header is only reachable through Header so that PayloadLen and
// Checksum always describe the payload the message actually carries.
type Message struct {
	header  Header
	payload []byte
}

// CreateOptions parameterise Create.
type CreateOptions struct {
	Flags     Flags
	MemoryRef MemoryRef
	Sequence  uint64
	// Timestamp in unix nanoseconds; zero means now.
	Timestamp uint64
	// Compress asks for compression when the payload exceeds the
	// compressor's MinBytes. It is adopted only if strictly smaller.
	Compress   bool
	Compressor *Compressor
}

// Create builds a message of the given kind around payload.
func Create(kind Kind, payload []byte, opts CreateOptions) (*Message, error) {
	// FlagCompressed is owned by Create: set only when the payload shrank.
	flags := opts.Flags &^ FlagCompressed
	comp := opts.Compressor
	if comp == nil {
		comp = DefaultCompressor()
	}
	if opts.Compress && len(payload) > comp.minBytes() {
		packed, err := comp.Compress(payload)
		if err != nil {
			return nil, fmt.Errorf("compress payload: %w", err)
		}
		if len(packed) < len(payload) {
			payload = packed
			flags |= FlagCompressed
		}
	}
	ts := opts.Timestamp
	if ts == 0 {
		ts = uint64(time.Now().UnixNano())
	}
	m := &Message{header: Header{
		Version:   Version,
		Kind:      kind,
		Flags:     flags,
		Timestamp: ts,
		Sequence:  opts.Sequence,
		MemoryRef: opts.MemoryRef,
	}}
	m.SetPayload(payload)
	return m, nil
}

// Header returns a copy of the message header.
func (m *Message) Header() Header { return m.header }

// Kind is shorthand for Header().Kind.
func (m *Message) Kind() Kind { return m.header.Kind }

// HasFlag checks whether a flag is set.
func (m *Message) HasFlag(f Flags) bool { return m.header.Flags.Has(f) }

// SetPayload replaces the transmitted payload and re-derives length and
// checksum. Flags are left alone; callers replacing a compressed payload are
// responsible for the compressed bit.
func (m *Message) SetPayload(p []byte) {
	m.payload = p
	m.header.PayloadLen = uint64(len(p))
	m.header.Checksum = crc32.ChecksumIEEE(p)
}

// RawPayload returns the payload as transmitted.
func (m *Message) RawPayload() []byte { return m.payload }

// Payload returns the payload, decompressed when FlagCompressed is set.
func (m *Message) Payload() ([]byte, error) { return m.PayloadWith(nil) }

// PayloadWith is Payload with an explicit compressor.
func (m *Message) PayloadWith(c *Compressor) ([]byte, error) {
	if !m.HasFlag(FlagCompressed) {
		return m.payload, nil
	}
	if c == nil {
		c = DefaultCompressor()
	}
	out, err := c.Decompress(m.payload)
	if err != nil {
		return nil, formatErr("payload", err)
	}
	return out, nil
}

// Size is the packed length of the message.
func (m *Message) Size() int { return HeaderSize + len(m.payload) }

// Pack returns header + payload as a single byte slice.
func (m *Message) Pack() []byte {
	out := make([]byte, m.Size())
	m.header.put(out)
	copy(out[HeaderSize:], m.payload)
	return out
}

// Unpack parses one message from the start of buf. Bytes past the stated
// payload length are ignored. The payload is not decompressed.
func Unpack(buf []byte) (*Message, error) {
	var h Header
	if err := h.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	avail := uint64(len(buf) - HeaderSize)
	if h.PayloadLen > avail {
		return nil, formatErr("unpack", fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, h.PayloadLen, avail))
	}
	payload := make([]byte, h.PayloadLen)
	copy(payload, buf[HeaderSize:HeaderSize+int(h.PayloadLen)])
	if got := crc32.ChecksumIEEE(payload); got != h.Checksum {
		return nil, &IntegrityError{Want: h.Checksum, Got: got}
	}
	return &Message{header: h, payload: payload}, nil
}

// WriteTo writes header + payload to w.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(m.Pack())
	return int64(n), err
}

// ReadMessage reads exactly one message from r. maxPayload guards against
// absurd lengths; zero means DefaultMaxDecompressed.
func ReadMessage(r io.Reader, maxPayload uint64) (*Message, error) {
	if maxPayload == 0 {
		maxPayload = DefaultMaxDecompressed
	}
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, formatErr("header", ErrShortHeader)
		}
		return nil, err
	}
	var h Header
	if err := h.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	if h.PayloadLen > maxPayload {
		return nil, formatErr("unpack", fmt.Errorf("%w: %d", ErrPayloadTooLarge, h.PayloadLen))
	}
	buf = append(buf, make([]byte, h.PayloadLen)...)
	if _, err := io.ReadFull(r, buf[HeaderSize:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, formatErr("unpack", ErrTruncated)
		}
		return nil, err
	}
	return Unpack(buf)
}
