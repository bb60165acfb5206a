package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tuneharvest/cmd/tuneharvest/commands"
)

const toolVersion = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := commands.NewRootCommand(toolVersion)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
