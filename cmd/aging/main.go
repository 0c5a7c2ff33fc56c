package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-aging/transport"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// app carries the dependencies shared by the subcommands.
type app struct {
	opener transport.Opener
	stdout io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aging",
		Short: "Dual-channel fixture burn-in test",
		Long: `aging drives the left and right channels of a fixture through repeated
burn-in cycles over two serial ports and records every cycle's pass/total counts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(a.stdout)

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newValidateCmd(a))
	rootCmd.AddCommand(newPortsCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))

	return rootCmd
}

func main() {
	a := &app{opener: &transport.SerialOpener{}, stdout: os.Stdout}

	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
