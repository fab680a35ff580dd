package regions

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"

	"go.viam.com/framemask/rimage"
)

func TestOverlay(t *testing.T) {
	img := newImage(40, 30)
	fillRect(img, image.Rect(5, 5, 20, 20), red)
	c := newTestClassifier(t, redTarget)
	mask, err := c.Classify(img)
	test.That(t, err, test.ShouldBeNil)
	found := FindRegions(mask, 1)
	test.That(t, len(found), test.ShouldEqual, 1)

	out := Overlay(img, mask, found)
	test.That(t, out.Bounds(), test.ShouldResemble, image.Rect(0, 0, 40, 30))

	// outside the mask and away from labels the frame is untouched
	test.That(t, color.NRGBAModel.Convert(out.At(35, 25)), test.ShouldResemble, color.NRGBA{A: 255})
	// member pixels keep the frame under the tint
	tinted := color.NRGBAModel.Convert(out.At(17, 18)).(color.NRGBA)
	test.That(t, tinted.A, test.ShouldEqual, 255)
	test.That(t, tinted.R, test.ShouldBeGreaterThan, tinted.G)
}

func TestOverlayBlendsTint(t *testing.T) {
	img := newImage(24, 24)
	fillRect(img, image.Rect(4, 4, 20, 20), red)
	mask := image.NewGray(img.Bounds())
	for y := 8; y < 16; y++ {
		for x := 8; x < 16; x++ {
			mask.SetGray(x, y, color.Gray{Y: rimage.MaskMember})
		}
	}

	out := Overlay(img, mask, nil)
	for _, p := range []image.Point{{8, 8}, {12, 12}, {15, 15}} {
		got := color.NRGBAModel.Convert(out.At(p.X, p.Y))
		test.That(t, got, test.ShouldResemble, color.NRGBA{R: 159, G: 96, B: 96, A: 255})
	}
	// red outside the mask and black outside the block are kept
	test.That(t, color.NRGBAModel.Convert(out.At(5, 5)), test.ShouldResemble, red)
	test.That(t, color.NRGBAModel.Convert(out.At(12, 16)), test.ShouldResemble, red)
	test.That(t, color.NRGBAModel.Convert(out.At(2, 2)), test.ShouldResemble, color.NRGBA{A: 255})
}
