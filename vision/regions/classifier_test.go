package regions

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"

	"go.viam.com/framemask/logging"
	"go.viam.com/framemask/rimage"
)

var (
	red       = color.NRGBA{R: 255, A: 255}
	magenta   = color.NRGBA{R: 100, G: 33, B: 78, A: 255} // hsv(160,171,100), inside falco-1
	redTarget = ColorTarget{Name: "red", Low: [3]int{0, 100, 50}, High: [3]int{10, 255, 255}}
)

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func newImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	fillRect(img, img.Bounds(), color.NRGBA{A: 255})
	return img
}

func newTestClassifier(t *testing.T, targets ...ColorTarget) *Classifier {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Targets = targets
	c, err := NewClassifier(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return c
}

func TestClassifySinglePixelFrame(t *testing.T) {
	img := newImage(2, 2)
	img.SetNRGBA(0, 0, red)

	mask, err := newTestClassifier(t, redTarget).Classify(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mask.Bounds(), test.ShouldResemble, image.Rect(0, 0, 2, 2))
	test.That(t, mask.Pix, test.ShouldResemble, []uint8{255, 0, 0, 0})

	region, ok := Dominant(mask)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, region.Bounds, test.ShouldResemble, image.Rect(0, 0, 1, 1))
}

func TestClassifyRemovesSpeckles(t *testing.T) {
	img := newImage(30, 30)
	fillRect(img, image.Rect(2, 2, 12, 12), red)
	img.SetNRGBA(24, 24, red)

	mask, err := newTestClassifier(t, redTarget).Classify(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mask.GrayAt(24, 24).Y, test.ShouldEqual, rimage.MaskNonMember)
	test.That(t, mask.GrayAt(7, 7).Y, test.ShouldEqual, rimage.MaskMember)

	found := FindRegions(mask, 1)
	test.That(t, len(found), test.ShouldEqual, 1)
	test.That(t, image.Pt(7, 7).In(found[0].Bounds), test.ShouldBeTrue)
	test.That(t, found[0].Area, test.ShouldBeGreaterThanOrEqualTo, 64)
	test.That(t, found[0].Area, test.ShouldBeLessThanOrEqualTo, 144)
}

func TestClassifyAllBlack(t *testing.T) {
	c, err := NewClassifier(DefaultConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	mask, err := c.Classify(newImage(8, 6))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mask.Bounds(), test.ShouldResemble, image.Rect(0, 0, 8, 6))
	test.That(t, rimage.CountMembers(mask), test.ShouldEqual, 0)
}

func TestClassifyReferenceTarget(t *testing.T) {
	img := newImage(7, 5)
	fillRect(img, img.Bounds(), magenta)

	mask, err := Classify(img, ReferenceTargets())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rimage.CountMembers(mask), test.ShouldEqual, 35)

	// the same frame as a packed RGB frame
	mask, err = Classify(rimage.NewFrameFromImage(img), ReferenceTargets())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rimage.CountMembers(mask), test.ShouldEqual, 35)
}

func TestClassifyKeepsSize(t *testing.T) {
	for _, factor := range []float64{3, 1.5, 1, 0.5} {
		for _, size := range []image.Point{{1, 1}, {2, 3}, {7, 5}, {16, 9}} {
			cfg := DefaultConfig()
			cfg.Targets = []ColorTarget{redTarget}
			cfg.ScaleFactor = factor
			c, err := NewClassifier(cfg, logging.NewTestLogger(t))
			test.That(t, err, test.ShouldBeNil)

			img := newImage(size.X, size.Y)
			mask, err := c.Classify(img.SubImage(image.Rect(0, 0, size.X, size.Y)))
			test.That(t, err, test.ShouldBeNil)
			test.That(t, mask.Bounds(), test.ShouldResemble, image.Rect(0, 0, size.X, size.Y))
		}
	}

	// a frame that does not start at the origin still gives a mask that does
	img := newImage(10, 10)
	fillRect(img, image.Rect(2, 2, 10, 10), red)
	mask, err := newTestClassifier(t, redTarget).Classify(img.SubImage(image.Rect(2, 2, 10, 10)))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mask.Bounds(), test.ShouldResemble, image.Rect(0, 0, 8, 8))
	test.That(t, rimage.CountMembers(mask), test.ShouldEqual, 64)
}

// patternImage has both colored blocks, a speckle and a gradient so that every stage has work.
func patternImage() *image.NRGBA {
	img := newImage(24, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 15), B: uint8((x + y) * 5), A: 255})
		}
	}
	fillRect(img, image.Rect(1, 1, 8, 7), red)
	fillRect(img, image.Rect(12, 6, 20, 14), magenta)
	img.SetNRGBA(22, 2, red)
	return img
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := newTestClassifier(t, append(ReferenceTargets(), redTarget)...)
	img := patternImage()
	first, err := c.Classify(img)
	test.That(t, err, test.ShouldBeNil)
	second, err := c.Classify(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second.Pix, test.ShouldResemble, first.Pix)
	test.That(t, rimage.CountMembers(first), test.ShouldBeGreaterThan, 0)
}

func TestClassifyTargetsOnlyAdd(t *testing.T) {
	img := patternImage()
	sets := [][]ColorTarget{
		{redTarget},
		{redTarget, ReferenceTargets()[0]},
		{redTarget, ReferenceTargets()[0], ReferenceTargets()[1]},
		append([]ColorTarget{redTarget}, ReferenceTargets()...),
	}
	var previous *image.Gray
	for _, targets := range sets {
		mask, err := newTestClassifier(t, targets...).Classify(img)
		test.That(t, err, test.ShouldBeNil)
		if previous != nil {
			for i, v := range previous.Pix {
				if v == rimage.MaskMember {
					test.That(t, mask.Pix[i], test.ShouldEqual, rimage.MaskMember)
				}
			}
		}
		previous = mask
	}

	onlyRed, err := newTestClassifier(t, redTarget).Classify(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rimage.CountMembers(previous), test.ShouldBeGreaterThan, rimage.CountMembers(onlyRed))
}

func TestClassifyInvalidFrames(t *testing.T) {
	c := newTestClassifier(t, redTarget)
	for _, img := range []image.Image{
		nil,
		image.NewGray(image.Rect(0, 0, 4, 4)),
		image.NewAlpha16(image.Rect(0, 0, 4, 4)),
		image.NewNRGBA(image.Rectangle{}),
		&rimage.Frame{Pix: make([]uint8, 3), Stride: 6, Rect: image.Rect(0, 0, 2, 2)},
		(*rimage.Frame)(nil),
	} {
		_, err := c.Classify(img)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, IsInvalidFrame(err), test.ShouldBeTrue)
	}
}

func TestNewClassifierWarnsAboutUnreachableTargets(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	cfg := DefaultConfig()
	c, err := NewClassifier(cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	warnings := logs.FilterMessage("color target can never match")
	test.That(t, warnings.Len(), test.ShouldEqual, 1)
	test.That(t, warnings.All()[0].ContextMap()["target"], test.ShouldEqual, "falco-2")

	// the target is kept as configured
	test.That(t, c.Config().Targets, test.ShouldResemble, ReferenceTargets())

	cfg.Targets[0].Name = "changed"
	test.That(t, c.Config().Targets[0].Name, test.ShouldEqual, "falco-1")
	c.Config().Targets[0].Name = "changed"
	test.That(t, c.Config().Targets[0].Name, test.ShouldEqual, "falco-1")

	_, err = NewClassifier(Config{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}
