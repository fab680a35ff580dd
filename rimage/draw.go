package rimage

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce sync.Once
	font     *truetype.Font
)

// Font returns the font labels are drawn with.
func Font() *truetype.Font {
	fontOnce.Do(func() {
		var err error
		font, err = truetype.Parse(goregular.TTF)
		if err != nil {
			panic(err)
		}
	})
	return font
}

// DrawLabel writes text with its top left corner at p.
func DrawLabel(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringAnchored(text, float64(p.X), float64(p.Y), 0, 1)
}

// DrawBox outlines r. Max is exclusive, so the outline runs along the last pixel row and column.
func DrawBox(dc *gg.Context, r image.Rectangle, c color.Color, lineWidth float64) {
	dc.SetColor(c)
	dc.SetLineWidth(lineWidth)
	dc.DrawRectangle(float64(r.Min.X)+0.5, float64(r.Min.Y)+0.5, float64(r.Dx()-1), float64(r.Dy()-1))
	dc.Stroke()
}

// TintMask composites c over every member pixel of mask, leaving the rest of dc as it was. The
// mask is placed at the origin of dc.
func TintMask(dc *gg.Context, mask *image.Gray, c color.NRGBA) {
	dst, ok := dc.Image().(draw.Image)
	if !ok {
		return
	}
	alpha := &image.Alpha{Pix: mask.Pix, Stride: mask.Stride, Rect: mask.Rect}
	r := image.Rectangle{Max: mask.Bounds().Size()}
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, alpha, mask.Bounds().Min, draw.Over)
}
