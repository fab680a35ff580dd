package rimage

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func TestUnion(t *testing.T) {
	a := maskFromRows("#..", "...")
	b := maskFromRows("..#", ".#.")
	test.That(t, Union(a, b), test.ShouldBeNil)
	test.That(t, a.Pix, test.ShouldResemble, maskFromRows("#.#", ".#.").Pix)
	// src untouched
	test.That(t, b.Pix, test.ShouldResemble, maskFromRows("..#", ".#.").Pix)

	err := Union(a, maskFromRows("##"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot union")
}

func TestBinarize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(img.Pix, []uint8{0, 127, 128, 250})
	out := Binarize(img, 128)
	test.That(t, out, test.ShouldEqual, img)
	test.That(t, img.Pix, test.ShouldResemble, []uint8{0, 0, 255, 255})
}

func TestCoverage(t *testing.T) {
	mask := maskFromRows("##..", "....")
	test.That(t, CountMembers(mask), test.ShouldEqual, 2)
	test.That(t, Coverage(mask), test.ShouldAlmostEqual, 0.25)
	test.That(t, Coverage(image.NewGray(image.Rectangle{})), test.ShouldEqual, 0)

	sub := mask.SubImage(image.Rect(0, 0, 2, 1)).(*image.Gray)
	test.That(t, Coverage(sub), test.ShouldEqual, 1)
}
