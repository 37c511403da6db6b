package protocol

import "fmt"

// Kind is the EKU message type carried in the 2-byte type field.
type Kind uint16

// Message kinds. The set is closed: header decode rejects anything else.
const (
	KindQuery       Kind = 0x0001
	KindExecute     Kind = 0x0002 // tool call
	KindResponse    Kind = 0x0003 // tool result
	KindMemoryWrite Kind = 0x0004
	KindMemoryRead  Kind = 0x0005
	KindSync        Kind = 0x0006
	KindHeartbeat   Kind = 0x0007 // liveness ping
	KindRoute       Kind = 0x0008
)

var kindNames = map[Kind]string{
	KindQuery:       "QUERY",
	KindExecute:     "EXECUTE",
	KindResponse:    "RESPONSE",
	KindMemoryWrite: "MEMORY_WRITE",
	KindMemoryRead:  "MEMORY_READ",
	KindSync:        "SYNC",
	KindHeartbeat:   "HEARTBEAT",
	KindRoute:       "ROUTE",
}

// Valid reports whether k belongs to the enumeration.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(0x%04x)", uint16(k))
}

// Flags is the 2-byte header bitset.
type Flags uint16

const (
	FlagPriority   Flags = 1 << 0
	FlagEncrypted  Flags = 1 << 1 // no cipher is defined at this layer
	FlagCompressed Flags = 1 << 2 // payload is a zlib stream
	FlagChunked    Flags = 1 << 3
	FlagRequireAck Flags = 1 << 4
	FlagBroadcast  Flags = 1 << 5
)

// Has reports whether every bit of f2 is set in f.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// Protocol constants.
const (
	// Magic is the 4-byte ASCII tag that opens every message.
	Magic = "HOPE"

	// Version is packed as major<<16 | minor<<8 | patch.
	Version uint32 = 3 << 16

	// CompressMinBytes is the payload size a message must exceed before
	// compression is attempted.
	CompressMinBytes = 100

	// CallCompressBytes is the payload size above which the call codec asks
	// for compression.
	CallCompressBytes = 200
)

// VersionOf packs a semantic version into the header layout.
func VersionOf(major, minor, patch uint8) uint32 {
	return uint32(major)<<16 | uint32(minor)<<8 | uint32(patch)
}
