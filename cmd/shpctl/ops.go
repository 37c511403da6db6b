package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"silenthope/pkg/protocol"
)

func newOpsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the operation id table",
		Args:  cobra.NoArgs,
		// the table is static; skip config and logger setup
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, op := range protocol.Operations() {
				fmt.Fprintf(cmd.OutOrStdout(), "0x%02x  %s\n", uint8(op.ID), op.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "0x%02x  %s\n", uint8(protocol.OpUnknown), protocol.OpName(protocol.OpUnknown))
			return nil
		},
	}
}
