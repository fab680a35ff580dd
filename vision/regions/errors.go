package regions

import (
	"fmt"
	"image"

	"github.com/pkg/errors"

	"go.viam.com/framemask/rimage"
)

// InvalidFrameError is returned for images that cannot be classified. It does not affect the
// stream the image came from; callers may skip the frame and continue.
type InvalidFrameError struct {
	Reason string
}

func (e *InvalidFrameError) Error() string {
	return "invalid frame: " + e.Reason
}

// IsInvalidFrame reports whether err is or wraps an InvalidFrameError.
func IsInvalidFrame(err error) bool {
	var invalid *InvalidFrameError
	return errors.As(err, &invalid)
}

// checkFrame rejects images without pixels, single channel images and malformed frames.
func checkFrame(img image.Image) error {
	switch typed := img.(type) {
	case nil:
		return &InvalidFrameError{Reason: "image is nil"}
	case *rimage.Frame:
		if err := typed.Validate(); err != nil {
			return &InvalidFrameError{Reason: err.Error()}
		}
		return nil
	case *image.Gray, *image.Gray16, *image.Alpha, *image.Alpha16:
		return &InvalidFrameError{Reason: fmt.Sprintf("need a color image, got single channel %T", img)}
	}
	if bounds := img.Bounds(); bounds.Empty() {
		return &InvalidFrameError{Reason: fmt.Sprintf("image has zero dimensions %dx%d", bounds.Dx(), bounds.Dy())}
	}
	return nil
}
