package regions

import (
	"image"
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/framemask/rimage"
)

// A Region is a 4-connected group of member pixels in a mask.
type Region struct {
	// Bounds is the smallest rectangle holding every pixel of the region; Max is exclusive.
	Bounds image.Rectangle
	Area   int
	// Centroid is the mean pixel position.
	Centroid r2.Point
	// Orientation is the angle of the principal axis in radians, in [-pi/2, pi/2]. Zero for
	// regions without a direction, like single pixels.
	Orientation float64
}

// FindRegions returns the regions of mask with at least minArea pixels, largest first. Regions of
// equal size keep the order in which a row-major scan first reaches them.
func FindRegions(mask *image.Gray, minArea int) []Region {
	bounds := mask.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	isMember := func(pt image.Point) bool {
		return mask.Pix[mask.PixOffset(bounds.Min.X+pt.X, bounds.Min.Y+pt.Y)] != rimage.MaskNonMember
	}

	seen := make([]bool, width*height)
	var found []Region
	var queue, pixels []image.Point
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pt := image.Point{x, y}
			if seen[y*width+x] {
				continue
			}
			seen[y*width+x] = true
			if !isMember(pt) {
				continue
			}

			queue = append(queue[:0], pt)
			pixels = pixels[:0]
			for len(queue) != 0 {
				cur := queue[0]
				queue = queue[1:]
				pixels = append(pixels, cur)
				for _, next := range [4]image.Point{
					{cur.X, cur.Y - 1}, {cur.X, cur.Y + 1}, {cur.X - 1, cur.Y}, {cur.X + 1, cur.Y},
				} {
					if next.X < 0 || next.Y < 0 || next.X >= width || next.Y >= height {
						continue
					}
					indx := next.Y*width + next.X
					if seen[indx] {
						continue
					}
					seen[indx] = true
					if isMember(next) {
						queue = append(queue, next)
					}
				}
			}
			if len(pixels) >= minArea {
				found = append(found, describe(pixels, bounds.Min))
			}
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Area > found[j].Area
	})
	return found
}

// Dominant returns the largest region of mask, if there is one.
func Dominant(mask *image.Gray) (Region, bool) {
	found := FindRegions(mask, 1)
	if len(found) == 0 {
		return Region{}, false
	}
	return found[0], true
}

func describe(pixels []image.Point, origin image.Point) Region {
	xs := make([]float64, len(pixels))
	ys := make([]float64, len(pixels))
	box := image.Rectangle{Min: pixels[0], Max: pixels[0].Add(image.Point{1, 1})}
	for i, pt := range pixels {
		xs[i], ys[i] = float64(pt.X+origin.X), float64(pt.Y+origin.Y)
		box = box.Union(image.Rectangle{Min: pt, Max: pt.Add(image.Point{1, 1})})
	}

	region := Region{
		Bounds:   box.Add(origin),
		Area:     len(pixels),
		Centroid: r2.Point{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)},
	}
	if len(pixels) > 1 {
		varX := stat.Variance(xs, nil)
		varY := stat.Variance(ys, nil)
		covXY := stat.Covariance(xs, ys, nil)
		region.Orientation = 0.5 * math.Atan2(2*covXY, varX-varY)
	}
	return region
}
