package main

import (
	"errors"
	"fmt"

	"github.com/trafficsieve/trafficsieve/pkg/config"
	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/sieve"
	"github.com/trafficsieve/trafficsieve/pkg/ui"
)

// exitCode maps a run error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return defaults.ExitSuccess
	case errors.Is(err, sieve.ErrInputNotFound),
		errors.Is(err, sieve.ErrInputEmpty),
		errors.Is(err, sieve.ErrInputUnreadable):
		return defaults.ExitInputError
	case errors.Is(err, sieve.ErrWriteFailure),
		errors.Is(err, sieve.ErrInternal):
		return defaults.ExitInternalError
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrMissingRequired):
		return defaults.ExitUserError
	default:
		return defaults.ExitInternalError
	}
}

// exitWithError prints err in its user-facing form and returns its exit code.
func (c *cli) exitWithError(err error) int {
	ui.PrintError(sieve.Describe(err))
	return exitCode(err)
}

// exitWithUsage prints msg followed by a usage hint.
func (c *cli) exitWithUsage(msg, usage string) int {
	ui.PrintError(msg)
	fmt.Fprintln(c.stderr)
	fmt.Fprintln(c.stderr, "Usage:", usage)
	return defaults.ExitUserError
}
