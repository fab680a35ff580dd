package regions

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"go.viam.com/framemask/rimage"
)

var (
	maskTint   = color.NRGBA{R: 0, G: 255, B: 255, A: 96}
	regionLine = color.NRGBA{R: 255, G: 255, B: 0, A: 255}
)

// Overlay draws mask and the outlines of regions over a copy of img, for checking a classifier
// config by eye. The mask and regions are in coordinates with the origin at the top left of img,
// as Classify and FindRegions produce them.
func Overlay(img image.Image, mask *image.Gray, found []Region) image.Image {
	bounds := img.Bounds()
	dc := gg.NewContext(bounds.Dx(), bounds.Dy())
	dc.DrawImage(img, -bounds.Min.X, -bounds.Min.Y)
	rimage.TintMask(dc, mask, maskTint)

	size := max(8, float64(bounds.Dy())/40)
	for i, region := range found {
		box := region.Bounds
		rimage.DrawBox(dc, box, regionLine, 1)
		rimage.DrawLabel(dc, fmt.Sprintf("%d: %d px", i, region.Area), box.Min.Add(image.Point{2, 2}), regionLine, size)
	}
	return dc.Image()
}
