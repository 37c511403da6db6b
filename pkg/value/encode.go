package value

import (
	"fmt"

	"silenthope/pkg/protocol/codec"
)

// Encode serializes v with c.
func Encode(c codec.Codec, v Value) ([]byte, error) {
	b, err := c.Marshal(Native(v))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.ContentType(), err)
	}
	return b, nil
}

// Decode parses data produced by Encode.
func Decode(c codec.Codec, data []byte) (Value, error) {
	var out any
	if err := c.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.ContentType(), err)
	}
	return FromDecoded(out)
}
