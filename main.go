package main

import (
	"fmt"
	"os"

	"github.com/kiroku-media/kiroku/cmd"
	"github.com/kiroku-media/kiroku/config"
	"github.com/kiroku-media/kiroku/log"
)

func main() {
	if err := config.Setup(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to setup config: %s\n", err)
		os.Exit(1)
	}

	if err := log.Setup(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to setup logs: %s\n", err)
		os.Exit(1)
	}

	cmd.Execute()
}
