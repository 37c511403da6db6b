// Package codec holds the schema-less serializers used for call arguments
// and results.
package codec

import (
	"fmt"
	"sort"
	"strings"
)

// Codec marshals dynamic values (nil, bool, int64, float64, string,
// []any, map[string]any) to bytes and back.
// Implementations must be deterministic and safe for concurrent use.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Content types of the built-in codecs.
const (
	ContentCBOR = "application/cbor"
	ContentJSON = "application/json"
)

// Registry maps content types and short aliases ("cbor", "json") to codecs.
type Registry struct{ byType map[string]Codec }

// NewRegistry constructs a registry preloaded with CBOR and JSON.
func NewRegistry() (*Registry, error) {
	r := &Registry{byType: make(map[string]Codec)}
	c, err := CBOR()
	if err != nil {
		return nil, err
	}
	r.Register(c)
	r.Register(JSON())
	return r, nil
}

// Register adds a codec.
func (r *Registry) Register(c Codec) { r.byType[c.ContentType()] = c }

// Get returns a codec by content type, or nil.
func (r *Registry) Get(contentType string) Codec { return r.byType[contentType] }

// Lookup accepts either a content type or the alias after the slash.
func (r *Registry) Lookup(name string) (Codec, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if c := r.byType[name]; c != nil {
		return c, nil
	}
	if c := r.byType["application/"+name]; c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("codec: unknown serializer %q (have %s)", name, strings.Join(r.Types(), ", "))
}

// Types lists the registered content types.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.byType))
	for t := range r.byType {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
