// Command webunpack exports no-code websites through the export backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/north-cloud/webunpack/cmd"
	"github.com/north-cloud/webunpack/cmd/common"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if !errors.Is(err, common.ErrSilent) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", common.Describe(err))
		}
		return 1
	}
	return 0
}
