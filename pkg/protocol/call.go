package protocol

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"silenthope/pkg/protocol/codec"
	"silenthope/pkg/value"
)

// Call is a decoded tool call.
type Call struct {
	Operation string
	ID        OpID
	Args      value.Value
	Sequence  uint64
	// MemoryRef is non-zero when the caller points at a chain entry instead
	// of resending the full context.
	MemoryRef MemoryRef
}

// Result is a decoded tool result.
type Result struct {
	Value    value.Value
	Sequence uint64
}

// CallOptions configure a CallCodec. Zero values select the defaults.
type CallOptions struct {
	// Serializer for arguments and results; nil means CBOR.
	Serializer codec.Codec
	Compressor *Compressor
	// CompressAbove is the payload size above which compression is
	// requested; zero means CallCompressBytes.
	CompressAbove int
	Logger        *zap.Logger
	Recorder      Recorder
}

// CallCodec encodes tool calls as EXECUTE messages and results as RESPONSE
// messages. Call payloads are [op id][serialized args]; result payloads are
// the serialized result alone.
//
// A CallCodec is safe for concurrent use. Every EncodeCall takes the next
// value of an internal counter, so sequence numbers issued by one codec are
// unique and strictly increasing.
type CallCodec struct {
	ser           codec.Codec
	comp          *Compressor
	compressAbove int
	log           *zap.Logger
	rec           Recorder
	seq           atomic.Uint64
}

// NewCallCodec builds a codec from opts.
func NewCallCodec(opts CallOptions) (*CallCodec, error) {
	c := &CallCodec{
		ser:           opts.Serializer,
		comp:          opts.Compressor,
		compressAbove: opts.CompressAbove,
		log:           opts.Logger,
		rec:           opts.Recorder,
	}
	if c.ser == nil {
		cb, err := codec.CBOR()
		if err != nil {
			return nil, fmt.Errorf("cbor codec: %w", err)
		}
		c.ser = cb
	}
	if c.comp == nil {
		c.comp = DefaultCompressor()
	}
	if c.compressAbove <= 0 {
		c.compressAbove = CallCompressBytes
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.rec == nil {
		c.rec = nopRecorder{}
	}
	return c, nil
}

// Sequence returns the last sequence number handed out by EncodeCall.
func (c *CallCodec) Sequence() uint64 { return c.seq.Load() }

// EncodeCall packs a call to op with args. Names missing from the operation
// table are sent as OpUnknown rather than rejected.
func (c *CallCodec) EncodeCall(op string, args any) ([]byte, error) {
	return c.EncodeCallRef(op, args, MemoryRef{})
}

// EncodeCallRef is EncodeCall with a chain reference in the header slot.
func (c *CallCodec) EncodeCallRef(op string, args any, ref MemoryRef) ([]byte, error) {
	id := OpIDFor(op)
	if id == OpUnknown {
		c.log.Warn("unknown operation encoded as 0xff", zap.String("op", op))
	}
	body, err := value.Encode(c.ser, value.Of(args))
	if err != nil {
		return nil, fmt.Errorf("encode call %s: %w", op, err)
	}
	payload := make([]byte, 1+len(body))
	payload[0] = byte(id)
	copy(payload[1:], body)

	seq := c.seq.Add(1)
	m, err := Create(KindExecute, payload, CreateOptions{
		Sequence:   seq,
		MemoryRef:  ref,
		Compress:   len(payload) > c.compressAbove,
		Compressor: c.comp,
	})
	if err != nil {
		return nil, fmt.Errorf("encode call %s: %w", op, err)
	}
	out := m.Pack()
	c.rec.Encoded(KindExecute, len(out), m.HasFlag(FlagCompressed))
	c.log.Debug("call encoded",
		zap.String("op", op),
		zap.Uint64("seq", seq),
		zap.Int("bytes", len(out)),
		zap.Bool("compressed", m.HasFlag(FlagCompressed)))
	return out, nil
}

// DecodeCall unpacks a call produced by EncodeCall.
func (c *CallCodec) DecodeCall(buf []byte) (Call, error) {
	m, p, err := c.open(buf)
	if err != nil {
		return Call{}, err
	}
	if len(p) == 0 {
		return Call{}, c.reject(formatErr("args", ErrEmptyCall))
	}
	args, err := value.Decode(c.ser, p[1:])
	if err != nil {
		return Call{}, c.reject(formatErr("args", err))
	}
	id := OpID(p[0])
	if !id.Known() {
		c.log.Debug("call with unmapped operation id", zap.Uint8("id", p[0]))
	}
	h := m.Header()
	return Call{
		Operation: OpName(id),
		ID:        id,
		Args:      args,
		Sequence:  h.Sequence,
		MemoryRef: h.MemoryRef,
	}, nil
}

// EncodeResult packs result as a RESPONSE carrying sequence, normally the
// sequence of the call being answered.
func (c *CallCodec) EncodeResult(result any, sequence uint64) ([]byte, error) {
	payload, err := value.Encode(c.ser, value.Of(result))
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	m, err := Create(KindResponse, payload, CreateOptions{
		Sequence:   sequence,
		Compress:   len(payload) > c.compressAbove,
		Compressor: c.comp,
	})
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	out := m.Pack()
	c.rec.Encoded(KindResponse, len(out), m.HasFlag(FlagCompressed))
	c.log.Debug("result encoded", zap.Uint64("seq", sequence), zap.Int("bytes", len(out)))
	return out, nil
}

// DecodeResult unpacks a result produced by EncodeResult.
func (c *CallCodec) DecodeResult(buf []byte) (Result, error) {
	m, p, err := c.open(buf)
	if err != nil {
		return Result{}, err
	}
	v, err := value.Decode(c.ser, p)
	if err != nil {
		return Result{}, c.reject(formatErr("result", err))
	}
	return Result{Value: v, Sequence: m.Header().Sequence}, nil
}

// open verifies framing and checksum and returns the decompressed payload.
func (c *CallCodec) open(buf []byte) (*Message, []byte, error) {
	m, err := Unpack(buf)
	if err != nil {
		return nil, nil, c.reject(err)
	}
	p, err := m.PayloadWith(c.comp)
	if err != nil {
		return nil, nil, c.reject(err)
	}
	c.rec.Decoded(m.Kind(), len(buf))
	return m, p, nil
}

func (c *CallCodec) reject(err error) error {
	c.rec.Rejected(err)
	if IsIntegrity(err) {
		c.log.Warn("message failed integrity check", zap.Error(err))
	} else {
		c.log.Debug("message rejected", zap.Error(err))
	}
	return err
}
