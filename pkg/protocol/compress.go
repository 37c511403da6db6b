package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// DefaultMaxDecompressed bounds the size a compressed payload may inflate to.
const DefaultMaxDecompressed = 64 << 20

// Compressor is the zlib stream pair used for payload compression.
type Compressor struct {
	// Level is a zlib level; 0 means zlib.BestSpeed.
	Level int
	// MaxDecompressed caps inflated output; 0 means DefaultMaxDecompressed.
	MaxDecompressed int64
	// MinBytes: payloads this size or smaller are sent as is; 0 means
	// CompressMinBytes.
	MinBytes int
}

// DefaultCompressor returns the fast-level compressor.
func DefaultCompressor() *Compressor {
	return &Compressor{Level: zlib.BestSpeed, MaxDecompressed: DefaultMaxDecompressed}
}

func (c *Compressor) level() int {
	if c == nil || c.Level == 0 {
		return zlib.BestSpeed
	}
	return c.Level
}

func (c *Compressor) minBytes() int {
	if c == nil || c.MinBytes <= 0 {
		return CompressMinBytes
	}
	return c.MinBytes
}

func (c *Compressor) limit() int64 {
	if c == nil || c.MaxDecompressed <= 0 {
		return DefaultMaxDecompressed
	}
	return c.MaxDecompressed
}

// Compress deflates b into a zlib stream.
func (c *Compressor) Compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, c.level())
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	if _, err := zw.Write(b); err != nil {
		return nil, fmt.Errorf("zlib write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zlib close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates a zlib stream produced by Compress.
func (c *Compressor) Decompress(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	defer zr.Close()
	limit := c.limit()
	out, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: inflated beyond %d bytes", ErrPayloadTooLarge, limit)
	}
	return out, nil
}
