package cmd

import (
	"errors"

	"github.com/assetmaps/bil2asset/internal/core/domain"
)

// Process exit codes, one per failure kind
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitNotFound    = 2
	ExitIsDirectory = 3
	ExitUnsupported = 4
	ExitExists      = 5
	ExitInvalid     = 6
)

// ExitCode maps an error onto the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, domain.ErrIsDirectory):
		return ExitIsDirectory
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return ExitUnsupported
	case errors.Is(err, domain.ErrAlreadyExists):
		return ExitExists
	case errors.Is(err, domain.ErrInvalidInput):
		return ExitInvalid
	}
	return ExitFailure
}
