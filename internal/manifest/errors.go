package manifest

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("manifest: configuration file not found")
	ErrPermissionDenied = errors.New("manifest: permission denied")
)

// ParseError pins a malformed manifest line. Line is 1-indexed.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("configuration error at line %d: %s", e.Line, e.Message)
}

func parseErrorf(line int, format string, args ...any) error {
	return &ParseError{Line: line, Message: fmt.Sprintf(format, args...)}
}
