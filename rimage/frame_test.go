package rimage

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestFrameAccessors(t *testing.T) {
	frame := NewFrame(4, 3)
	test.That(t, frame.Width(), test.ShouldEqual, 4)
	test.That(t, frame.Height(), test.ShouldEqual, 3)
	test.That(t, frame.Pix, test.ShouldHaveLength, 4*3*3)
	test.That(t, frame.Validate(), test.ShouldBeNil)

	frame.SetRGB(2, 1, 10, 20, 30)
	r, g, b := frame.RGBAt(2, 1)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{10, 20, 30})
	test.That(t, frame.At(2, 1), test.ShouldResemble, color.RGBA{10, 20, 30, 255})
	test.That(t, frame.At(9, 9), test.ShouldResemble, color.RGBA{})

	// out of bounds writes are dropped
	frame.SetRGB(-1, 0, 1, 1, 1)
	clone := frame.Clone()
	test.That(t, clone.Pix, test.ShouldResemble, frame.Pix)
	clone.SetRGB(0, 0, 255, 255, 255)
	r, _, _ = frame.RGBAt(0, 0)
	test.That(t, r, test.ShouldEqual, 0)
}

func TestNewFrameFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 8, 7))
	src.SetNRGBA(6, 6, color.NRGBA{200, 100, 50, 128})
	frame := NewFrameFromImage(src)
	test.That(t, frame.Bounds(), test.ShouldResemble, image.Rect(0, 0, 3, 2))
	r, g, b := frame.RGBAt(1, 1)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{200, 100, 50})

	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(1, 0, color.Gray{77})
	frame = NewFrameFromImage(gray)
	r, g, b = frame.RGBAt(1, 0)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{77, 77, 77})
}

func TestFrameValidate(t *testing.T) {
	var nilFrame *Frame
	test.That(t, nilFrame.Validate(), test.ShouldNotBeNil)

	empty := NewFrame(0, 4)
	err := empty.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "zero dimensions")

	short := NewFrame(4, 4)
	short.Pix = short.Pix[:10]
	err = short.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "buffer has 10 bytes")

	narrow := NewFrame(4, 4)
	narrow.Stride = 4
	test.That(t, narrow.Validate(), test.ShouldNotBeNil)
}
