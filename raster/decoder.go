package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Registered image formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Sentinel errors for decoding.
var (
	ErrDecode     = errors.New("raster: payload is not a decodable image")
	ErrEmptyImage = errors.New("raster: image has no pixel data")
)

// Decoder turns fetched bytes into an Image.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: invalid payloads return an error matching ErrDecode.
type Decoder interface {
	Decode(data []byte) (*Image, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte) (*Image, error)

// Decode calls f(data).
func (f DecoderFunc) Decode(data []byte) (*Image, error) {
	return f(data)
}

// DefaultMaxPixels bounds the declared dimensions of a payload, 64 Mpx.
const DefaultMaxPixels int64 = 1 << 26

// FormatDecoder decodes every format registered with the image package:
// PNG, JPEG, GIF, WebP, BMP and TIFF.
type FormatDecoder struct {
	scale     float64
	maxPixels int64
}

// DecoderOption configures a FormatDecoder.
type DecoderOption func(*FormatDecoder)

// WithMaxPixels bounds width*height as declared by the payload header.
// Payloads over the limit are rejected before any pixel buffer is
// allocated. Zero or less disables the check. Default: DefaultMaxPixels.
func WithMaxPixels(n int64) DecoderOption {
	return func(d *FormatDecoder) {
		d.maxPixels = n
	}
}

// NewDecoder creates a decoder producing images for the given scale factor.
func NewDecoder(scale float64, opts ...DecoderOption) *FormatDecoder {
	if scale <= 0 {
		scale = 1
	}
	d := &FormatDecoder{scale: scale, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes data. Empty or unrecognized payloads wrap ErrDecode.
func (d *FormatDecoder) Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	if d.maxPixels > 0 {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		if px := int64(cfg.Width) * int64(cfg.Height); px > d.maxPixels {
			return nil, fmt.Errorf("%w: %s image declares %dx%d, over %d pixels",
				ErrDecode, format, cfg.Width, cfg.Height, d.maxPixels)
		}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s image has empty bounds", ErrDecode, format)
	}
	return FromImage(img, d.scale), nil
}

// Scale returns the scale factor assigned to decoded images.
func (d *FormatDecoder) Scale() float64 {
	return d.scale
}

// MaxPixels returns the pixel bound. Zero means unbounded.
func (d *FormatDecoder) MaxPixels() int64 {
	if d.maxPixels < 0 {
		return 0
	}
	return d.maxPixels
}

var _ Decoder = (*FormatDecoder)(nil)
