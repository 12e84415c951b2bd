// Package cli parses command-line arguments into an app configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/app"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app
// config, a boolean indicating the program should exit cleanly (help or no
// arguments), or an ExitError with a usage exit code.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("vesim", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
vesim - a spatially-gridded ecosystem simulator.

Usage:
  vesim [options] CONFIG_PATH [CONFIG_PATH...]

Arguments:
  CONFIG_PATH
    Path to a .hcl configuration file or a directory containing .hcl files.
    Multiple paths are merged into a single configuration.

Options:
`)
		flagSet.PrintDefaults()
	}

	outDirFlag := flagSet.String("out", "out", "Directory for run outputs.")
	logFileFlag := flagSet.String("log-file", "", "Write logs to this file instead of standard output.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	progressFlag := flagSet.Bool("progress", false, "Print a progress line per simulation tick.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		ConfigPaths: flagSet.Args(),
		OutputDir:   *outDirFlag,
		LogFile:     *logFileFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		Progress:    *progressFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}
