package core

import (
	"errors"
	"fmt"
)

var (
	ErrFileUnreadable        = errors.New("file not found or unreadable")
	ErrInvalidReaderState    = errors.New("line reader is closed")
	ErrInvalidReaderOption   = errors.New("invalid line reader option")
	ErrMalformedNormalLine   = errors.New("vertex normal line needs 3 numeric components")
	ErrMalformedPositionLine = errors.New("vertex position line needs 3 numeric components")
	ErrMalformedFaceLine     = errors.New("face index is not an integer")
	ErrEmptyModel            = errors.New("model has no vertex positions")
	ErrIndexOutOfRange       = errors.New("face references an index out of range")
	ErrUnknown               = errors.New("unknown")
)

// ImportError reports a failed model import. Line is 1-based and zero when the
// failure is not tied to a single line (e.g. an empty model).
type ImportError struct {
	Path string
	Line int
	Err  error
}

func (e *ImportError) Error() string {
	path := e.Path
	if path == "" {
		path = "<stream>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("import %s:%d: %s", path, e.Line, e.Err)
	}
	return fmt.Sprintf("import %s: %s", path, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// LineOf returns the line number carried by err, or 0.
func LineOf(err error) int {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Line
	}
	return 0
}
