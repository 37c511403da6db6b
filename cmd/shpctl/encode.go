package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"silenthope/pkg/protocol"
)

func newEncodeCallCmd(get func() *app) *cobra.Command {
	var (
		argsJSON string
		ref      string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "encode-call <operation>",
		Short: "Encode a tool call as an EXECUTE frame",
		Example: `  shpctl encode-call hope_feel --args '{"emotions":{"joy":0.9}}'
  shpctl encode-call hope_recall --ref chain:latest -o call.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			callArgs, err := parseJSONArg(argsJSON)
			if err != nil {
				return fmt.Errorf("--args: %w", err)
			}
			frame, err := a.calls.EncodeCallRef(args[0], callArgs, protocol.NewMemoryRef(ref))
			if err != nil {
				return err
			}
			return emitFrame(cmd.OutOrStdout(), out, frame)
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "", "Call arguments as JSON")
	cmd.Flags().StringVar(&ref, "ref", "", "Chain reference for the header slot (at most 16 bytes)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the binary frame to this file instead of hex to stdout")
	return cmd
}

func newEncodeResultCmd(get func() *app) *cobra.Command {
	var (
		resultJSON string
		seq        uint64
		out        string
	)
	cmd := &cobra.Command{
		Use:   "encode-result",
		Short: "Encode a tool result as a RESPONSE frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := parseJSONArg(resultJSON)
			if err != nil {
				return fmt.Errorf("--result: %w", err)
			}
			frame, err := get().calls.EncodeResult(result, seq)
			if err != nil {
				return err
			}
			return emitFrame(cmd.OutOrStdout(), out, frame)
		},
	}
	cmd.Flags().StringVar(&resultJSON, "result", "", "Result as JSON")
	cmd.Flags().Uint64Var(&seq, "seq", 0, "Sequence of the call being answered")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the binary frame to this file instead of hex to stdout")
	return cmd
}

// parseJSONArg decodes s keeping numbers as json.Number, so integers stay
// integers on the wire. Empty input means no value.
func parseJSONArg(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func emitFrame(w io.Writer, path string, frame []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(w, hex.EncodeToString(frame))
		return err
	}
	if err := os.WriteFile(path, frame, 0o644); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "wrote %d bytes to %s\n", len(frame), path)
	return err
}
