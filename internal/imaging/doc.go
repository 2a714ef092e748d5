// Package imaging normalizes uploaded image bytes into the canonical in-memory
// representation consumed by every analysis stage.
//
// Any format with a registered decoder is accepted: PNG, JPEG and GIF from the
// standard library plus BMP, TIFF and WebP from golang.org/x/image. Whatever the
// source color model (paletted, grayscale, CMYK, 16-bit, with or without alpha),
// the result is an *RGB: a packed 8-bit buffer with fixed R,G,B channel order and
// its origin at (0,0). Transparent pixels are composited over white.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Immutability
//
// An *RGB is never modified after Decode returns. It implements image.Image so
// the detection and OCR engines can read it concurrently without copying.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. It is used by the MCP
// transport, where clients refer to images by path and often call several
// tools on the same file.
//
// # Error Handling
//
// Every decode failure wraps ErrDecode so callers can map it to a single
// response class with errors.Is.
package imaging
