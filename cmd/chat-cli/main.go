package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/nfrund/gobychat/cmd/chat-cli/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.NewRootCmd(afero.NewOsFs()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
