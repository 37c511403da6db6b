package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"silenthope/pkg/protocol"
	"silenthope/pkg/value"
)

func newBenchCmd(get func() *app) *cobra.Command {
	var iterations int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare SHP frames with plain JSON for calls, results and chain references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if iterations <= 0 {
				return fmt.Errorf("--iterations must be positive")
			}
			a := get()
			w := cmd.OutOrStdout()
			if err := benchCodec(w, a, iterations); err != nil {
				return err
			}
			if err := benchChain(w, a, iterations); err != nil {
				return err
			}
			if a.registry != nil {
				return dumpMetrics(w, a)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 10000, "Encode/decode round trips per measurement")
	return cmd
}

type measurement struct {
	elapsed time.Duration
	size    int
}

func measure(n int, round func() (int, error)) (measurement, error) {
	var size int
	start := time.Now()
	for i := 0; i < n; i++ {
		s, err := round()
		if err != nil {
			return measurement{}, err
		}
		size = s
	}
	return measurement{elapsed: time.Since(start), size: size}, nil
}

func benchCodec(w io.Writer, a *app, n int) error {
	op := "hope_feel"
	args := map[string]any{"emotions": map[string]any{"joy": 0.9, "excitement": 0.8, "hope": 0.7}}
	state := make(map[string]any, 21)
	for i := 0; i < 21; i++ {
		state[fmt.Sprintf("emotion_%d", i)] = 0.5
	}
	result := map[string]any{
		"dominant":      map[string]any{"emotion": "joy", "value": 0.85},
		"current_state": state,
		"_ms":           1.23,
	}

	jsonCall, err := measure(n, func() (int, error) {
		b, err := json.Marshal(map[string]any{"tool": op, "args": args})
		if err != nil {
			return 0, err
		}
		var back map[string]any
		return len(b), json.Unmarshal(b, &back)
	})
	if err != nil {
		return err
	}
	shpCall, err := measure(n, func() (int, error) {
		b, err := a.calls.EncodeCall(op, args)
		if err != nil {
			return 0, err
		}
		_, err = a.calls.DecodeCall(b)
		return len(b), err
	})
	if err != nil {
		return err
	}
	jsonResult, err := measure(n, func() (int, error) {
		b, err := json.Marshal(result)
		if err != nil {
			return 0, err
		}
		var back map[string]any
		return len(b), json.Unmarshal(b, &back)
	})
	if err != nil {
		return err
	}
	shpResult, err := measure(n, func() (int, error) {
		b, err := a.calls.EncodeResult(result, 1)
		if err != nil {
			return 0, err
		}
		_, err = a.calls.DecodeResult(b)
		return len(b), err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "SHP vs JSON, %d iterations\n\n", n)
	report(w, "Tool call encode/decode", "JSON", jsonCall, "SHP", shpCall)
	report(w, "Result encode/decode", "JSON", jsonResult, "SHP", shpResult)
	return nil
}

func report(w io.Writer, title, baseName string, base measurement, name string, m measurement) {
	fmt.Fprintf(w, "  %s:\n", title)
	fmt.Fprintf(w, "    %-8s %-12s (%d bytes)\n", baseName+":", base.elapsed.Round(time.Microsecond), base.size)
	fmt.Fprintf(w, "    %-8s %-12s (%d bytes)\n", name+":", m.elapsed.Round(time.Microsecond), m.size)
	fmt.Fprintf(w, "    speed %.1fx, size %.2fx\n\n", ratio(base.elapsed, m.elapsed), float64(base.size)/float64(m.size))
}

func ratio(a, b time.Duration) float64 {
	if b <= 0 {
		b = 1
	}
	return float64(a) / float64(b)
}

// benchChain compares resending a conversation context on every request with
// storing it once and sending a header reference that the receiver resolves.
func benchChain(w io.Writer, a *app, n int) error {
	messages := make([]any, 50)
	for i := range messages {
		messages[i] = map[string]any{"role": "user", "content": fmt.Sprintf("Message %d with some content here", i)}
	}
	memory := make(map[string]any, 100)
	for i := 0; i < 100; i++ {
		memory[fmt.Sprintf("key_%d", i)] = fmt.Sprintf("value_%d", i)
	}
	dims := make(map[string]any, 21)
	for i := 0; i < 21; i++ {
		dims[fmt.Sprintf("dim_%d", i)] = 0.5
	}
	convo := map[string]any{
		"messages": messages,
		"memory":   memory,
		"state":    map[string]any{"emotional": dims},
	}

	full, err := measure(n/10+1, func() (int, error) {
		b, err := a.calls.EncodeCall("hope_think", convo)
		if err != nil {
			return 0, err
		}
		_, err = a.calls.DecodeCall(b)
		return len(b), err
	})
	if err != nil {
		return err
	}

	if _, err := a.chain.Store("context", value.Of(convo)); err != nil {
		return err
	}
	ref := protocol.NewMemoryRef("chain:latest")
	byRef, err := measure(n/10+1, func() (int, error) {
		b, err := a.calls.EncodeCallRef("hope_think", nil, ref)
		if err != nil {
			return 0, err
		}
		call, err := a.calls.DecodeCall(b)
		if err != nil {
			return 0, err
		}
		if _, ok := a.chain.ResolveMemoryRef(call.MemoryRef); !ok {
			return 0, fmt.Errorf("chain reference %s did not resolve", call.MemoryRef)
		}
		return len(b), nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Memory chain vs full context, %d iterations (50 messages, 100 memory items)\n\n", n/10+1)
	report(w, "Call with context", "inline", full, "chain", byRef)
	st := a.cache.Stats()
	fmt.Fprintf(w, "  cache: %d entries, %d bytes, hit rate %.2f\n", st.Entries, st.Bytes, st.HitRate())
	return nil
}

func dumpMetrics(w io.Writer, a *app) error {
	mfs, err := a.registry.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
