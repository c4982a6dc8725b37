package gearimport

import (
	"errors"
	"fmt"
	"strings"
)

// Input missing: the user is sent back to the upload step.
var (
	ErrNoFile         = errors.New("no file provided")
	ErrEmptyFile      = errors.New("empty file")
	ErrFileTooLarge   = errors.New("file too large")
	ErrSessionExpired = errors.New("import session expired")
)

// Wizard input errors: the current step is rejected and can be retried.
var (
	ErrMappingInvalid         = errors.New("invalid mapping")
	ErrInvalidHeaderRow       = errors.New("invalid header row")
	ErrInvalidWeightUnit      = errors.New("invalid weight unit")
	ErrInvalidDuplicateAction = errors.New("invalid duplicate action")
	ErrCategoriesUnresolved   = errors.New("categories unresolved")
	ErrInvalidStep            = errors.New("import step not allowed")
)

var (
	// ErrNothingImported is returned by Commit when no row succeeded. The
	// import batch is discarded.
	ErrNothingImported = errors.New("nothing imported")

	ErrBatchNotFound = errors.New("import batch not found")
)

// RowError is a validation or persistence failure of one spreadsheet row.
type RowError struct {
	Row     int
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

// CommitError is returned when a commit ends with zero successful rows.
// It matches ErrNothingImported and lists every row failure.
type CommitError struct {
	Errors  []RowError
	Skipped int
}

func (e *CommitError) Error() string {
	msgs := make([]string, 0, len(e.Errors)+1)
	for _, re := range e.Errors {
		msgs = append(msgs, re.Error())
	}
	if e.Skipped > 0 {
		msgs = append(msgs, fmt.Sprintf("%d duplicate rows skipped", e.Skipped))
	}
	if len(msgs) == 0 {
		msgs = append(msgs, "no rows to import")
	}
	return ErrNothingImported.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *CommitError) Is(target error) bool {
	return target == ErrNothingImported
}
