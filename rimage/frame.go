// Package rimage holds the raster types and pixel operations used to turn video frames into
// region masks.
package rimage

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// FrameChannels is the number of interleaved 8-bit channels in a Frame.
const FrameChannels = 3

// Frame is one decoded video frame stored as packed 8-bit R, G, B samples. A frame handed out by a
// video source belongs to the receiver; nothing else holds or mutates its buffer.
type Frame struct {
	// Pix holds the pixels in R, G, B order. The pixel at (x, y) starts at
	// Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []uint8
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
	// Rect is the frame's bounds.
	Rect image.Rectangle
}

// NewFrame returns a black frame of the given size.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Pix:    make([]uint8, width*height*FrameChannels),
		Stride: width * FrameChannels,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// NewFrameFromImage copies any image into a new frame with its origin at (0, 0). Alpha is
// dropped.
func NewFrameFromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	frame := NewFrame(bounds.Dx(), bounds.Dy())

	switch src := img.(type) {
	case *Frame:
		for y := 0; y < bounds.Dy(); y++ {
			srcOff := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(frame.Pix[y*frame.Stride:(y+1)*frame.Stride], src.Pix[srcOff:srcOff+frame.Stride])
		}
	case *image.NRGBA:
		for y := 0; y < bounds.Dy(); y++ {
			srcOff := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			dstOff := y * frame.Stride
			for x := 0; x < bounds.Dx(); x++ {
				frame.Pix[dstOff+0] = src.Pix[srcOff+0]
				frame.Pix[dstOff+1] = src.Pix[srcOff+1]
				frame.Pix[dstOff+2] = src.Pix[srcOff+2]
				srcOff += 4
				dstOff += FrameChannels
			}
		}
	default:
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				c := color.RGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.RGBA)
				frame.SetRGB(x, y, c.R, c.G, c.B)
			}
		}
	}
	return frame
}

// ColorModel returns the RGBA color model; frames are always opaque.
func (f *Frame) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds returns the frame bounds.
func (f *Frame) Bounds() image.Rectangle {
	return f.Rect
}

// At returns the color at (x, y) or transparent black outside the bounds.
func (f *Frame) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(f.Rect)) {
		return color.RGBA{}
	}
	r, g, b := f.RGBAt(x, y)
	return color.RGBA{r, g, b, 0xff}
}

// RGBAt returns the raw samples at (x, y). The point must be within bounds.
func (f *Frame) RGBAt(x, y int) (r, g, b uint8) {
	i := f.PixOffset(x, y)
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// SetRGB sets the samples at (x, y). Out of bounds points are ignored.
func (f *Frame) SetRGB(x, y int, r, g, b uint8) {
	if !(image.Point{x, y}.In(f.Rect)) {
		return
	}
	i := f.PixOffset(x, y)
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
}

// PixOffset returns the index of the first element of Pix that corresponds to the pixel at (x, y).
func (f *Frame) PixOffset(x, y int) int {
	return (y-f.Rect.Min.Y)*f.Stride + (x-f.Rect.Min.X)*FrameChannels
}

// Width returns the frame width.
func (f *Frame) Width() int {
	return f.Rect.Dx()
}

// Height returns the frame height.
func (f *Frame) Height() int {
	return f.Rect.Dy()
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	return NewFrameFromImage(f)
}

// Validate checks that the frame is non-empty and that its buffer can hold every pixel.
func (f *Frame) Validate() error {
	if f == nil {
		return errors.New("frame is nil")
	}
	if f.Rect.Empty() {
		return errors.Errorf("frame has zero dimensions %dx%d", f.Rect.Dx(), f.Rect.Dy())
	}
	if f.Stride < f.Rect.Dx()*FrameChannels {
		return errors.Errorf("frame stride %d too small for width %d with %d channels",
			f.Stride, f.Rect.Dx(), FrameChannels)
	}
	if need := (f.Rect.Dy()-1)*f.Stride + f.Rect.Dx()*FrameChannels; len(f.Pix) < need {
		return errors.Errorf("frame buffer has %d bytes, need %d", len(f.Pix), need)
	}
	return nil
}
