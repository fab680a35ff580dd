package rimage

import (
	"image"

	"github.com/pkg/errors"
)

// Mask values. A mask is an *image.Gray holding only these two values.
const (
	MaskNonMember = uint8(0)
	MaskMember    = uint8(255)
)

// Union sets every pixel of dst that is a member in src. Both masks must be the same size.
func Union(dst, src *image.Gray) error {
	if dst.Rect.Size() != src.Rect.Size() {
		return errors.Errorf("cannot union masks of size %v and %v", dst.Rect.Size(), src.Rect.Size())
	}
	width, height := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < height; y++ {
		d := dst.Pix[dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y):]
		s := src.Pix[src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y):]
		for x := 0; x < width; x++ {
			if s[x] != MaskNonMember {
				d[x] = MaskMember
			}
		}
	}
	return nil
}

// Binarize rewrites a gray image in place so that values at or above threshold become
// MaskMember and everything else MaskNonMember. It returns its input.
func Binarize(img *image.Gray, threshold uint8) *image.Gray {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < height; y++ {
		row := img.Pix[img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y):]
		for x := 0; x < width; x++ {
			if row[x] >= threshold {
				row[x] = MaskMember
			} else {
				row[x] = MaskNonMember
			}
		}
	}
	return img
}

// CountMembers returns the number of member pixels in a mask.
func CountMembers(mask *image.Gray) int {
	count := 0
	width, height := mask.Rect.Dx(), mask.Rect.Dy()
	for y := 0; y < height; y++ {
		row := mask.Pix[mask.PixOffset(mask.Rect.Min.X, mask.Rect.Min.Y+y):]
		for x := 0; x < width; x++ {
			if row[x] != MaskNonMember {
				count++
			}
		}
	}
	return count
}

// Coverage returns the fraction of member pixels in a mask, 0 for an empty mask.
func Coverage(mask *image.Gray) float64 {
	total := mask.Rect.Dx() * mask.Rect.Dy()
	if total == 0 {
		return 0
	}
	return float64(CountMembers(mask)) / float64(total)
}
