// Package source imports source definitions from JSON or YAML files into
// the source registry.
package source

import "errors"

var (
	// ErrInvalidFile means the import file is not a list of source definitions.
	ErrInvalidFile = errors.New("invalid source file")

	// ErrDuplicateName means one file declares the same source name twice.
	ErrDuplicateName = errors.New("duplicate source name in file")
)
