package videosource

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrEndOfStream is returned by Next once a stream will produce no more frames. It is a terminal
// signal rather than a failure; every later call returns it again.
var ErrEndOfStream = errors.New("end of stream")

// OpenError is returned when a video source cannot be opened.
type OpenError struct {
	Source string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open video source %q: %v", e.Source, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// NewOpenError wraps err as an OpenError for source.
func NewOpenError(source string, err error) error {
	return &OpenError{Source: source, Err: err}
}
