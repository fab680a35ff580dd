package rimage

import (
	"image"

	"github.com/pkg/errors"
)

// ErodeSquare replaces every pixel with the minimum over a kernelSize x kernelSize window centered
// on it. Window cells that fall outside the image are skipped, so borders are not eroded by the
// edge of the image itself.
func ErodeSquare(img *image.Gray, kernelSize int) (*image.Gray, error) {
	return squareFilter(img, kernelSize, minUint8)
}

// DilateSquare replaces every pixel with the maximum over a kernelSize x kernelSize window
// centered on it. Window cells outside the image are skipped.
func DilateSquare(img *image.Gray, kernelSize int) (*image.Gray, error) {
	return squareFilter(img, kernelSize, maxUint8)
}

// OpenSquare is an erosion followed by a dilation with the same square kernel. It removes
// foreground components that cannot contain the kernel and leaves larger shapes intact.
func OpenSquare(img *image.Gray, kernelSize int) (*image.Gray, error) {
	eroded, err := ErodeSquare(img, kernelSize)
	if err != nil {
		return nil, err
	}
	return DilateSquare(eroded, kernelSize)
}

func minUint8(a, b uint8) uint8 { return min(a, b) }

func maxUint8(a, b uint8) uint8 { return max(a, b) }

// The square window is separable: filter rows first, then columns of the row result.
func squareFilter(img *image.Gray, kernelSize int, pick func(a, b uint8) uint8) (*image.Gray, error) {
	if kernelSize < 1 || kernelSize%2 == 0 {
		return nil, errors.Errorf("kernel size must be a positive odd number, got %d", kernelSize)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	radius := kernelSize / 2

	rows := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := img.Pix[img.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		dst := rows.Pix[y*rows.Stride:]
		for x := 0; x < width; x++ {
			v := src[x]
			for xx := max(0, x-radius); xx <= min(width-1, x+radius); xx++ {
				v = pick(v, src[xx])
			}
			dst[x] = v
		}
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		from, to := max(0, y-radius), min(height-1, y+radius)
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < width; x++ {
			v := rows.Pix[y*rows.Stride+x]
			for yy := from; yy <= to; yy++ {
				v = pick(v, rows.Pix[yy*rows.Stride+x])
			}
			dst[x] = v
		}
	}
	return out, nil
}
