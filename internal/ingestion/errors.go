package ingestion

import (
	"errors"
	"strings"
)

var (
	ErrEmptyWorkbook      = errors.New("workbook has no sheets")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrWorkbookUnreadable = errors.New("workbook could not be read")
)

// ValidationError aborts an upload. It carries every critical issue found
// across all sheets.
type ValidationError struct {
	Critical []Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Critical))
	for i, issue := range e.Critical {
		msgs[i] = issue.String()
	}
	return "Validation failed: " + strings.Join(msgs, ", ")
}
