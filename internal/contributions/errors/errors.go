// Package errors holds the sentinel errors shared by the repository,
// service and transport layers. Callers match them with errors.Is.
package errors

import (
	"fmt"
)

var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrDuplicateKey = fmt.Errorf("duplicate key")
	ErrInvalidInput = fmt.Errorf("invalid input")

	// ErrDanglingReference is returned when a row points at a parent key
	// (worker/year or convenio year) that does not exist.
	ErrDanglingReference = fmt.Errorf("dangling reference")

	// ErrHasDependents is returned when deleting a row that is still referenced.
	ErrHasDependents = fmt.Errorf("referenced by dependent rows")
)
