package arena

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnknownKind     = errors.New("unknown kind")
	ErrFileNotFound    = errors.New("file not found")
	ErrNotFound        = errors.New("no matching entity")
	ErrInvalidSize     = errors.New("size must be positive")
	ErrInvalidName     = errors.New("name may not contain commas or line breaks")
	ErrNotControllable = errors.New("agent is not user controlled")
)

// ParseError reports a malformed line in a persisted arena file.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
