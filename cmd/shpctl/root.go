package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"silenthope/pkg/config"
	"silenthope/pkg/observability"
)

// newRootCmd builds the shpctl command tree. Subcommands reach the shared
// components through the returned app pointer once PersistentPreRunE ran.
func newRootCmd() *cobra.Command {
	var (
		a          *app
		configPath string
		logLevel   string
	)
	root := &cobra.Command{
		Use:   "shpctl",
		Short: "Encode, decode and benchmark SHP frames",
		Long: `shpctl works with the SHP binary message format: it encodes tool calls
and results into framed messages, decodes and verifies frames, generates
sample frames and compares the format against plain JSON.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			logger, err := observability.SetupLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}
			a, err = newApp(cfg, logger)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.Close()
			}
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level")

	get := func() *app { return a }
	root.AddCommand(
		newEncodeCallCmd(get),
		newEncodeResultCmd(get),
		newDecodeCmd(get),
		newOpsCmd(),
		newGenFramesCmd(get),
		newBenchCmd(get),
	)
	return root
}
