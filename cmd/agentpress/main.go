package main

import (
	"fmt"
	"os"

	"github.com/agentpress/agentpress/internal/config"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	cfg := config.FromEnv()

	app := newCLIApp(cfg)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
