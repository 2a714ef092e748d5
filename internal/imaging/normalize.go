package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrDecode is wrapped by every error returned when input bytes cannot be
// turned into an image.
var ErrDecode = errors.New("image decode failed")

// RGB is an immutable 8-bit image with three interleaved channels in R,G,B order.
//
// Pix holds the pixels row by row; the pixel at (x, y) starts at
// Pix[y*Stride+x*3]. Rect always has its origin at (0,0).
type RGB struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle

	// Format is the name of the decoder that produced the image ("png", "jpeg", ...).
	Format string
}

// ColorModel implements image.Image.
func (p *RGB) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (p *RGB) Bounds() image.Rectangle { return p.Rect }

// At implements image.Image. Points outside the bounds are transparent black.
func (p *RGB) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	return color.RGBA{R: p.Pix[i], G: p.Pix[i+1], B: p.Pix[i+2], A: 0xff}
}

// PixOffset returns the index of the first element of Pix for the pixel at (x, y).
func (p *RGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

// Width returns the image width in pixels.
func (p *RGB) Width() int { return p.Rect.Dx() }

// Height returns the image height in pixels.
func (p *RGB) Height() int { return p.Rect.Dy() }

// Decode reads an encoded image from r and normalizes it to RGB.
//
// A nil reader, an empty stream, or bytes no registered decoder accepts all
// produce an error wrapping ErrDecode.
func Decode(r io.Reader) (*RGB, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no image data", ErrDecode)
	}

	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	img := FromImage(src)
	img.Format = format
	return img, nil
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte) (*RGB, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no image data", ErrDecode)
	}
	return Decode(bytes.NewReader(data))
}

// FromImage converts any image.Image to RGB, compositing alpha over white.
//
// The source is never modified.
func FromImage(src image.Image) *RGB {
	// Clone handles every color model and rebases the bounds to (0,0).
	nrgba := imaging.Clone(src)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()

	dst := &RGB{
		Pix:    make([]uint8, w*h*3),
		Stride: w * 3,
		Rect:   image.Rect(0, 0, w, h),
	}

	for y := 0; y < h; y++ {
		s := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		d := dst.Pix[y*dst.Stride : y*dst.Stride+w*3]
		for x := 0; x < w; x++ {
			a := uint32(s[x*4+3])
			d[x*3+0] = flatten(s[x*4+0], a)
			d[x*3+1] = flatten(s[x*4+1], a)
			d[x*3+2] = flatten(s[x*4+2], a)
		}
	}

	return dst
}

// flatten blends a non-premultiplied channel value over a white background.
func flatten(c uint8, a uint32) uint8 {
	if a == 0xff {
		return c
	}
	return uint8((uint32(c)*a + 0xff*(0xff-a) + 0x7f) / 0xff)
}
