package todotxt

import (
	"errors"
	"fmt"
)

// ErrFormat is matched by every *FormatError.
var ErrFormat = errors.New("malformed todo.txt line")

// FormatError reports a line that could not be parsed structurally. The line
// itself is kept as an opaque record.
type FormatError struct {
	Line   int // 1-based, 0 when unknown
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Text)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}
