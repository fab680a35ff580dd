package rimage

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"
	"go.uber.org/multierr"
)

// ImageExtensions lists the file extensions ReadImageFromFile and WriteImageToFile understand.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".ppm", ".qoi"}

// IsImageFile reports whether the path has one of ImageExtensions.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, known := range ImageExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// ReadImageFromFile decodes an image file. Any registered format works; importing this package
// registers ppm and qoi next to the standard png and jpeg.
func ReadImageFromFile(path string) (image.Image, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode %q", path)
	}
	return img, nil
}

// WriteImageToFile encodes img to path in the format picked by the file extension.
func WriteImageToFile(path string, img image.Image) (err error) {
	var encode func(io.Writer, image.Image) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = png.Encode
	case ".jpg", ".jpeg":
		encode = func(w io.Writer, img image.Image) error { return jpeg.Encode(w, img, nil) }
	case ".ppm":
		encode = ppm.Encode
	case ".qoi":
		encode = qoi.Encode
	default:
		return errors.Errorf("do not know how to write image file %q", path)
	}

	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return encode(f, img)
}
