// Package main provides the entry point for the colorsize CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ShoMaruoka/color-size-tool/cmd/colorsize/app"
)

// Version information populated at build time.
var version = "dev"

func main() {
	application := app.New(version, os.Stdout)

	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	err := application.Execute(ctx, os.Args[1:])
	application.Shutdown()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
