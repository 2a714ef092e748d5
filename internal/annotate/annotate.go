// Package annotate draws detection boxes and labels onto a copy of an image.
package annotate

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/image-insight/internal/detection"
	imgutil "github.com/ironsheep/image-insight/internal/imaging"
)

const (
	lineWidth   = 2
	labelHeight = 15
	labelPadX   = 3
)

// LabelColor returns the box color for a label. The same label always gets
// the same color.
func LabelColor(label string) color.NRGBA {
	h := fnv.New32a()
	h.Write([]byte(label))
	hue := float64(h.Sum32()%360)

	c := colorful.Hsv(hue, 0.85, 0.95).Clamped()
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// textColor picks black or white, whichever reads better on bg.
func textColor(bg color.NRGBA) color.Color {
	c, _ := colorful.MakeColor(bg)
	if l, _, _ := c.Lab(); l > 0.6 {
		return color.Black
	}
	return color.White
}

// Draw returns a copy of img with every detection outlined and labeled with
// its name and confidence. img is not modified. The copy's bounds start at
// (0,0); boxes are shifted accordingly.
func Draw(img image.Image, res detection.Result) *image.NRGBA {
	dst := imaging.Clone(img)
	origin := img.Bounds().Min

	for _, d := range res.Detections {
		c := LabelColor(d.Label)
		r := image.Rect(
			int(math.Round(d.Box[0]))-origin.X,
			int(math.Round(d.Box[1]))-origin.Y,
			int(math.Round(d.Box[2]))-origin.X,
			int(math.Round(d.Box[3]))-origin.Y,
		)
		outline(dst, r, c)
		label(dst, r, fmt.Sprintf("%s %.2f", d.Label, d.Confidence), c)
	}
	return dst
}

// EncodeBase64 draws the detections and returns the result as base64 PNG.
func EncodeBase64(img image.Image, res detection.Result) (string, error) {
	return imgutil.EncodeBase64PNG(Draw(img, res))
}

func outline(dst *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	src := image.NewUniform(c)
	for i := 0; i < lineWidth; i++ {
		rr := r.Inset(i)
		if rr.Empty() {
			break
		}
		edges := []image.Rectangle{
			image.Rect(rr.Min.X, rr.Min.Y, rr.Max.X, rr.Min.Y+1),
			image.Rect(rr.Min.X, rr.Max.Y-1, rr.Max.X, rr.Max.Y),
			image.Rect(rr.Min.X, rr.Min.Y, rr.Min.X+1, rr.Max.Y),
			image.Rect(rr.Max.X-1, rr.Min.Y, rr.Max.X, rr.Max.Y),
		}
		for _, e := range edges {
			draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
		}
	}
}

// label draws text on a filled tab above the box, or inside its top edge
// when there is no room above.
func label(dst *image.NRGBA, box image.Rectangle, text string, c color.NRGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil() + 2*labelPadX

	top := box.Min.Y - labelHeight
	if top < dst.Bounds().Min.Y {
		top = box.Min.Y
	}
	tab := image.Rect(box.Min.X, top, box.Min.X+width, top+labelHeight)
	draw.Draw(dst, tab.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor(c)),
		Face: face,
		Dot:  fixed.P(tab.Min.X+labelPadX, tab.Min.Y+face.Ascent+1),
	}
	d.DrawString(text)
}
