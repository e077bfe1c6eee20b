package ini

import (
	"errors"
	"fmt"
)

var (
	ErrSectionNotFound = errors.New("section not found")
	ErrKeyNotFound     = errors.New("key not found")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrUnsupportedType = errors.New("unsupported value type")
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidValue    = errors.New("invalid value")
)

// SyntaxError reports a malformed line in INI input.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parse ini file: line %d: %s", e.Line, e.Msg)
}
