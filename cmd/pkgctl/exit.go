package main

import (
	"errors"

	"github.com/danmuck/pkgctl/internal/commands"
	"github.com/danmuck/pkgctl/internal/manifest"
	"github.com/danmuck/pkgctl/internal/system"
)

const (
	exitOK            = 0
	exitConfig        = 1
	exitPermission    = 2
	exitCommandFailed = 3
	exitHelperMissing = 4
	exitUserCancelled = 6
	exitGeneric       = 1
)

// exitCode maps an error returned by a command onto the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		return coder.ExitCode()
	}
	var parseErr *manifest.ParseError
	switch {
	case errors.As(err, &parseErr), errors.Is(err, manifest.ErrNotFound):
		return exitConfig
	case errors.Is(err, manifest.ErrPermissionDenied), errors.Is(err, system.ErrPermissionDenied):
		return exitPermission
	case errors.Is(err, system.ErrHelperMissing):
		return exitHelperMissing
	case errors.Is(err, system.ErrCommandFailed):
		return exitCommandFailed
	case errors.Is(err, commands.ErrUserCancelled):
		return exitUserCancelled
	default:
		return exitGeneric
	}
}
