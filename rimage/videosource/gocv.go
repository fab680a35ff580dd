//go:build gocv

package videosource

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"go.viam.com/framemask/logging"
	"go.viam.com/framemask/rimage"
)

func init() {
	RegisterBackend("opencv", func(ctx context.Context, source string, logger logging.Logger) (Decoder, error) {
		return NewOpenCVDecoder(source, logger)
	})
}

type opencvDecoder struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	logger  logging.Logger
}

// NewOpenCVDecoder decodes source with OpenCV's VideoCapture. It is only built with the gocv tag.
func NewOpenCVDecoder(source string, logger logging.Logger) (Decoder, error) {
	capture, err := gocv.VideoCaptureFile(source)
	if err != nil {
		return nil, err
	}
	if !capture.IsOpened() {
		return nil, multierr.Combine(errors.New("video capture did not open"), capture.Close())
	}
	logger.Debugw("opened video capture", "source", source, "codec", capture.CodecString())
	return &opencvDecoder{capture: capture, mat: gocv.NewMat(), logger: logger}, nil
}

func (d *opencvDecoder) Read(ctx context.Context) (*rimage.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := d.capture.Read(&d.mat); !ok || d.mat.Empty() {
		return nil, io.EOF
	}
	// OpenCV decodes to BGR.
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(d.mat, &rgb, gocv.ColorBGRToRGB)

	width, height := rgb.Cols(), rgb.Rows()
	frame := rimage.NewFrame(width, height)
	data := rgb.ToBytes()
	if len(data) != len(frame.Pix) {
		return nil, errors.Errorf("decoded %d bytes for a %dx%d frame", len(data), width, height)
	}
	copy(frame.Pix, data)
	return frame, nil
}

func (d *opencvDecoder) Close() error {
	return multierr.Combine(d.mat.Close(), d.capture.Close())
}
