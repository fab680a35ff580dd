package rimage

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// ScaledSize returns the size of an image of the given size scaled by factor, rounded to the
// nearest pixel and never smaller than one pixel.
func ScaledSize(width, height int, factor float64) (int, int) {
	w := int(math.Round(float64(width) * factor))
	h := int(math.Round(float64(height) * factor))
	return max(w, 1), max(h, 1)
}

// ResizeCubic resamples an image to exactly width x height using a Catmull-Rom cubic filter.
func ResizeCubic(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, width, height, imaging.CatmullRom)
}

// MaskInterpolation names the resampling used when a mask changes size.
type MaskInterpolation string

const (
	// MaskInterpolationBilinear blends neighboring mask values.
	MaskInterpolationBilinear = MaskInterpolation("bilinear")
	// MaskInterpolationNearest copies the nearest mask value.
	MaskInterpolationNearest = MaskInterpolation("nearest")
)

func (mi MaskInterpolation) function() (resize.InterpolationFunction, error) {
	switch mi {
	case MaskInterpolationBilinear, "":
		return resize.Bilinear, nil
	case MaskInterpolationNearest:
		return resize.NearestNeighbor, nil
	default:
		return 0, errors.Errorf("unknown mask interpolation %q", mi)
	}
}

// Validate returns an error for unknown interpolation names. The empty name means bilinear.
func (mi MaskInterpolation) Validate() error {
	_, err := mi.function()
	return err
}

// ResizeMask resamples a mask to exactly width x height. The result is a new image even when the
// size does not change. Blended values are kept as is; see Binarize.
func ResizeMask(mask *image.Gray, width, height int, interp MaskInterpolation) (*image.Gray, error) {
	fn, err := interp.function()
	if err != nil {
		return nil, err
	}
	if mask.Rect.Dx() == width && mask.Rect.Dy() == height {
		return CloneGray(mask), nil
	}

	resized := resize.Resize(uint(width), uint(height), mask, fn)
	if gray, ok := resized.(*image.Gray); ok {
		return gray, nil
	}
	// resize only promotes formats it has no fast path for; keep the mask single channel.
	out := image.NewGray(image.Rect(0, 0, width, height))
	bounds := resized.Bounds()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.Set(x, y, resized.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return out, nil
}

// CloneGray returns a copy of a gray image with its origin at (0, 0).
func CloneGray(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		srcOff := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+bounds.Dx()], img.Pix[srcOff:srcOff+bounds.Dx()])
	}
	return out
}
