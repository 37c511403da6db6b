package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"silenthope/pkg/protocol"
	"silenthope/pkg/value"
)

func newDecodeCmd(get func() *app) *cobra.Command {
	var (
		hexInput bool
		stores   []string
	)
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Verify and print every frame in a file or stdin",
		Long: `decode reads concatenated frames, verifies magic, kind and checksum, and
prints the header and payload of each. EXECUTE and RESPONSE payloads are
decoded as calls and results. Header chain references are resolved against
values given with --store.`,
		Example: `  shpctl encode-call hope_feel --args '{"joy":0.9}' | shpctl decode --hex
  shpctl decode frames/call_ref.bin --store 'people={"Bob":"Colleague"}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			for _, kv := range stores {
				key, raw, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("--store %q: want key=json", kv)
				}
				v, err := parseJSONArg(raw)
				if err != nil {
					return fmt.Errorf("--store %s: %w", key, err)
				}
				ref, err := a.chain.Store(key, value.Of(v))
				if err != nil {
					return err
				}
				a.log.Debug("preloaded chain value", zap.String("ref", ref))
			}

			in, err := openInput(cmd, args, hexInput)
			if err != nil {
				return err
			}
			return decodeStream(cmd.OutOrStdout(), a, in)
		},
	}
	cmd.Flags().BoolVar(&hexInput, "hex", false, "Input is hex text (as printed by encode-call)")
	cmd.Flags().StringArrayVar(&stores, "store", nil, "Store key=json in the chain before decoding (repeatable)")
	return cmd
}

func openInput(cmd *cobra.Command, args []string, hexInput bool) (io.Reader, error) {
	var raw []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, err
	}
	if hexInput {
		raw, err = hex.DecodeString(strings.Join(strings.Fields(string(raw)), ""))
		if err != nil {
			return nil, fmt.Errorf("hex input: %w", err)
		}
	}
	return bytes.NewReader(raw), nil
}

func decodeStream(w io.Writer, a *app, r io.Reader) error {
	for n := 0; ; n++ {
		m, err := protocol.ReadMessage(r, a.cfg.Protocol.MaxPayloadBytes)
		if errors.Is(err, io.EOF) {
			if n == 0 {
				return fmt.Errorf("no frames in input")
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
		if err := printMessage(w, a, n, m); err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
	}
}

func printMessage(w io.Writer, a *app, n int, m *protocol.Message) error {
	h := m.Header()
	maj, minor, patch := h.VersionParts()
	fmt.Fprintf(w, "frame %d: %s v%d.%d.%d seq=%d flags=0x%04x payload=%dB time=%s\n",
		n, h.Kind, maj, minor, patch, h.Sequence, uint16(h.Flags), h.PayloadLen,
		time.Unix(0, int64(h.Timestamp)).UTC().Format(time.RFC3339Nano))

	if !h.MemoryRef.IsZero() {
		if v, ok := a.chain.ResolveMemoryRef(h.MemoryRef); ok {
			fmt.Fprintf(w, "  ref:    %s => %s\n", h.MemoryRef, toJSON(v))
		} else {
			fmt.Fprintf(w, "  ref:    %s (unresolved)\n", h.MemoryRef)
		}
	}

	switch h.Kind {
	case protocol.KindExecute:
		call, err := a.calls.DecodeCall(m.Pack())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  call:   %s (0x%02x) %s\n", call.Operation, uint8(call.ID), toJSON(call.Args))
	case protocol.KindResponse:
		res, err := a.calls.DecodeResult(m.Pack())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  result: %s\n", toJSON(res.Value))
	default:
		p, err := m.PayloadWith(a.comp)
		if err != nil {
			return err
		}
		if len(p) > 0 {
			fmt.Fprintf(w, "  raw:    %s\n", shortHex(p, 32))
		}
	}
	return nil
}

func toJSON(v value.Value) string {
	b, err := json.Marshal(value.Native(v))
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
