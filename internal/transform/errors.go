package transform

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedMediaType is returned for bodies that are neither JSON nor
	// XML.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrUnsupportedScript is returned for script files of an unknown kind.
	ErrUnsupportedScript = errors.New("unsupported script type")
	// ErrMissingField is returned when a mapped field is absent from an entry.
	ErrMissingField = errors.New("missing field")
	// ErrNoTransformFunc is returned when a Go script does not define a usable
	// Transform function.
	ErrNoTransformFunc = errors.New("function `Transform` is not defined")
)

// TransformationError reports a failure while applying a named
// transformation.
type TransformationError struct {
	Transformation string
	Err            error
}

func (e *TransformationError) Error() string {
	return fmt.Sprintf("transformation %q failed: %v", e.Transformation, e.Err)
}

func (e *TransformationError) Unwrap() error { return e.Err }
