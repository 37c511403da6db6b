package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type jsonCodec struct{}

// JSON returns a JSON codec (RFC 8259). Numbers decode as json.Number so the
// caller decides between integer and float. Whole floats such as 1.0 are
// written as 1 and come back as integers; prefer CBOR on the wire.
func JSON() Codec { return jsonCodec{} }

func (jsonCodec) ContentType() string           { return ContentJSON }
func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("json: trailing data after value")
	}
	return nil
}
