package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// errFilesFailed makes the process exit non-zero without printing usage
var errFilesFailed = errors.New("one or more files failed")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pivot",
		Short:         "Pivot inventory files into Store-by-Product tables and flag sentinel-store movement",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newProcessCmd(), newServeCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFilesFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
