package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Fixed header layout (60 bytes). All integer fields are big-endian.
//
//	0  ..3   Magic      "HOPE"
//	4  ..7   Version    u32 (major<<16 | minor<<8 | patch)
//	8  ..9   Type       u16
//	10 ..11  Flags      u16
//	12 ..19  Timestamp  u64 (unix nanoseconds)
//	20 ..27  Sequence   u64
//	28 ..35  PayloadLen u64 (transmitted bytes)
//	36 ..51  MemoryRef  [16]byte, zero padded
//	52 ..55  Checksum   u32 (CRC-32 IEEE of transmitted payload)
//	56 ..59  Reserved   zero
const HeaderSize = 60

// MemoryRef is the fixed-width reference slot. A chain reference such as
// "chain:latest" is stored left-aligned and zero padded.
type MemoryRef [16]byte

// NewMemoryRef pads or truncates s to 16 bytes.
func NewMemoryRef(s string) MemoryRef {
	var r MemoryRef
	copy(r[:], s)
	return r
}

// MemoryRefFromBytes pads or truncates b to 16 bytes.
func MemoryRefFromBytes(b []byte) MemoryRef {
	var r MemoryRef
	copy(r[:], b)
	return r
}

// IsZero reports whether the slot is unused.
func (r MemoryRef) IsZero() bool { return r == MemoryRef{} }

// String returns the slot contents without trailing zero padding.
func (r MemoryRef) String() string { return string(bytes.TrimRight(r[:], "\x00")) }

// Header describes one EKU. PayloadLen and Checksum are owned by Message and
// are only meaningful when produced by Create or Unpack.
type Header struct {
	Version    uint32
	Kind       Kind
	Flags      Flags
	Timestamp  uint64
	Sequence   uint64
	PayloadLen uint64
	MemoryRef  MemoryRef
	Checksum   uint32
}

// VersionParts splits the packed version field.
func (h *Header) VersionParts() (major, minor, patch uint8) {
	return uint8(h.Version >> 16), uint8(h.Version >> 8), uint8(h.Version)
}

// MarshalBinary encodes the header to a 60-byte buffer.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.put(buf)
	return buf, nil
}

func (h *Header) put(buf []byte) {
	copy(buf[0:4], Magic)
	binary.BigEndian.PutUint32(buf[4:8], h.Version)
	binary.BigEndian.PutUint16(buf[8:10], uint16(h.Kind))
	binary.BigEndian.PutUint16(buf[10:12], uint16(h.Flags))
	binary.BigEndian.PutUint64(buf[12:20], h.Timestamp)
	binary.BigEndian.PutUint64(buf[20:28], h.Sequence)
	binary.BigEndian.PutUint64(buf[28:36], h.PayloadLen)
	copy(buf[36:52], h.MemoryRef[:])
	binary.BigEndian.PutUint32(buf[52:56], h.Checksum)
	clear(buf[56:60])
}

// UnmarshalBinary decodes the header from the first 60 bytes of buf.
func (h *Header) UnmarshalBinary(buf []byte) error {
	if len(buf) < HeaderSize {
		return formatErr("header", fmt.Errorf("%w: %d < %d", ErrShortHeader, len(buf), HeaderSize))
	}
	if string(buf[0:4]) != Magic {
		return formatErr("header", fmt.Errorf("%w: %q", ErrBadMagic, buf[0:4]))
	}
	kind := Kind(binary.BigEndian.Uint16(buf[8:10]))
	if !kind.Valid() {
		return formatErr("header", fmt.Errorf("%w: 0x%04x", ErrUnknownKind, uint16(kind)))
	}
	h.Version = binary.BigEndian.Uint32(buf[4:8])
	h.Kind = kind
	h.Flags = Flags(binary.BigEndian.Uint16(buf[10:12]))
	h.Timestamp = binary.BigEndian.Uint64(buf[12:20])
	h.Sequence = binary.BigEndian.Uint64(buf[20:28])
	h.PayloadLen = binary.BigEndian.Uint64(buf[28:36])
	copy(h.MemoryRef[:], buf[36:52])
	h.Checksum = binary.BigEndian.Uint32(buf[52:56])
	return nil
}
