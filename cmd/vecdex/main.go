// Command vecdex is the operator tool for deterministic vector index
// snapshots: inspecting and verifying snapshot containers and checking
// the distance kernel on the local hardware.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vecdex",
		Short:         "Operator tooling for the vecdex deterministic vector index",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newKernelCmd())
	return rootCmd
}
