package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"silenthope/pkg/protocol"
	"silenthope/pkg/value"
)

func newGenFramesCmd(get func() *app) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "genframes",
		Short: "Write a set of sample frames for fixtures and interop tests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			return genFrames(cmd.OutOrStdout(), get(), outDir)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "testdata/frames", "Output directory for binary frames")
	return cmd
}

func genFrames(w io.Writer, a *app, dir string) error {
	write := func(name string, frame []byte, err error) error {
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return writeOut(w, dir, name, frame)
	}

	// 1) Small call, sent uncompressed
	b, err := a.calls.EncodeCall("hope_feel", map[string]any{"emotions": map[string]any{"joy": 0.9, "hope": 0.7}})
	if err := write("call_feel.bin", b, err); err != nil {
		return err
	}

	// 2) Large repetitive call, compressed
	b, err = a.calls.EncodeCall("hope_remember", map[string]any{
		"content":    strings.Repeat("Meeting with Bob tomorrow at 10am. ", 20),
		"importance": 0.7,
	})
	if err := write("call_remember_z.bin", b, err); err != nil {
		return err
	}

	// 3) Call whose argument lives in the chain
	ref, err := a.chain.Store("people", value.Map{"Bob": value.String("Colleague")})
	if err != nil {
		return err
	}
	b, err = a.calls.EncodeCallRef("hope_who_is", map[string]any{"name": "Bob"}, protocol.NewMemoryRef(ref))
	if err := write("call_ref.bin", b, err); err != nil {
		return err
	}

	// 4) Result answering the first call
	b, err = a.calls.EncodeResult(map[string]any{
		"dominant": map[string]any{"emotion": "joy", "value": 0.85},
		"_ms":      1.23,
	}, 1)
	if err := write("result_feel.bin", b, err); err != nil {
		return err
	}

	// 5) Empty heartbeat and a memory write, back to back in one stream
	var stream bytes.Buffer
	hb, err := protocol.Create(protocol.KindHeartbeat, nil, protocol.CreateOptions{Flags: protocol.FlagPriority})
	if err != nil {
		return err
	}
	hb.WriteTo(&stream)
	mw, err := protocol.Create(protocol.KindMemoryWrite, []byte("chain:latest"), protocol.CreateOptions{
		Flags:     protocol.FlagRequireAck,
		MemoryRef: protocol.NewMemoryRef("chain:latest"),
	})
	if err != nil {
		return err
	}
	mw.WriteTo(&stream)
	if err := writeOut(w, dir, "stream_control.bin", stream.Bytes()); err != nil {
		return err
	}

	fmt.Fprintln(w, "Generated frames in", dir)
	return nil
}

func writeOut(w io.Writer, dir, name string, b []byte) error {
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(w, "%-24s %5d bytes  head: %s\n", name, len(b), shortHex(b, 32))
	return nil
}

func shortHex(b []byte, n int) string {
	if len(b) == 0 {
		return ""
	}
	if n > len(b) {
		n = len(b)
	}
	enc := hex.EncodeToString(b[:n])
	var out []string
	for i := 0; i < len(enc); i += 4 {
		j := i + 4
		if j > len(enc) {
			j = len(enc)
		}
		out = append(out, enc[i:j])
	}
	s := strings.Join(out, " ")
	if len(b) > n {
		s += " ..."
	}
	return s
}
