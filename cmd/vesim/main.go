package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/app"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/cli"
)

// main is the entrypoint for the vesim application.
func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	simulation, err := app.New(outW, appConfig)
	if err != nil {
		return err
	}

	// Interrupts abort the run cleanly between ticks.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return simulation.Run(ctx)
}
