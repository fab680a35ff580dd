package rimage

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// MaxHue is the largest hue in the 8-bit HSV encoding. Hue is stored in degrees halved so a full
// turn fits into a byte, the same convention OpenCV uses for 8-bit images.
const MaxHue = 179

// HSV is a color in 8-bit HSV: H in [0, MaxHue], S and V in [0, 255].
type HSV struct {
	H, S, V uint8
}

func (c HSV) String() string {
	return fmt.Sprintf("hsv(%d,%d,%d)", c.H, c.S, c.V)
}

// InRange reports whether every channel lies within [low, high], inclusive.
func (c HSV) InRange(low, high HSV) bool {
	return c.H >= low.H && c.H <= high.H &&
		c.S >= low.S && c.S <= high.S &&
		c.V >= low.V && c.V <= high.V
}

// HSVFromRGB converts 8-bit RGB samples to 8-bit HSV.
func HSVFromRGB(r, g, b uint8) HSV {
	cc := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
	h, s, v := cc.Hsv()

	hue := int(math.Round(h / 2))
	if hue > MaxHue {
		// 359.5 degrees and up wraps back to red.
		hue -= MaxHue + 1
	}
	return HSV{
		H: uint8(hue),
		S: uint8(math.Round(s * 255)),
		V: uint8(math.Round(v * 255)),
	}
}

// HSVFromColor converts any color, ignoring alpha.
func HSVFromColor(c color.Color) HSV {
	rgba := color.NRGBAModel.Convert(c).(color.NRGBA)
	return HSVFromRGB(rgba.R, rgba.G, rgba.B)
}

// HSVImage is a raster of 8-bit HSV samples laid out like Frame.
type HSVImage struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// NewHSVImage returns an HSV image of the given size with every sample zero.
func NewHSVImage(width, height int) *HSVImage {
	return &HSVImage{
		Pix:    make([]uint8, width*height*3),
		Stride: width * 3,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// ConvertToHSV converts an image to HSV. The result has its origin at (0, 0).
func ConvertToHSV(img image.Image) *HSVImage {
	bounds := img.Bounds()
	out := NewHSVImage(bounds.Dx(), bounds.Dy())

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < bounds.Dy(); y++ {
			srcOff := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			dstOff := y * out.Stride
			for x := 0; x < bounds.Dx(); x++ {
				out.set(dstOff, HSVFromRGB(src.Pix[srcOff], src.Pix[srcOff+1], src.Pix[srcOff+2]))
				srcOff += 4
				dstOff += 3
			}
		}
	case *Frame:
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				r, g, b := src.RGBAt(bounds.Min.X+x, bounds.Min.Y+y)
				out.set(y*out.Stride+x*3, HSVFromRGB(r, g, b))
			}
		}
	default:
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				out.set(y*out.Stride+x*3, HSVFromColor(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
			}
		}
	}
	return out
}

func (h *HSVImage) set(i int, c HSV) {
	h.Pix[i], h.Pix[i+1], h.Pix[i+2] = c.H, c.S, c.V
}

// HSVAt returns the sample at (x, y). The point must be within bounds.
func (h *HSVImage) HSVAt(x, y int) HSV {
	i := (y-h.Rect.Min.Y)*h.Stride + (x-h.Rect.Min.X)*3
	return HSV{h.Pix[i], h.Pix[i+1], h.Pix[i+2]}
}

// Bounds returns the image bounds.
func (h *HSVImage) Bounds() image.Rectangle {
	return h.Rect
}

// InRange returns a mask that is MaskMember wherever every channel of the pixel lies within
// [low, high] and MaskNonMember elsewhere. A range with low above high on any channel matches
// nothing.
func InRange(img *HSVImage, low, high HSV) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcOff := y * img.Stride
		dstOff := y * mask.Stride
		for x := 0; x < w; x++ {
			c := HSV{img.Pix[srcOff], img.Pix[srcOff+1], img.Pix[srcOff+2]}
			if c.InRange(low, high) {
				mask.Pix[dstOff+x] = MaskMember
			}
			srcOff += 3
		}
	}
	return mask
}
