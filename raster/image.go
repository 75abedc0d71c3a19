package raster

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"sync"
)

// Image is a decoded image together with the device scale factor it was
// decoded for.
//
// Contract:
// - Immutability: the pixel buffer must not be modified after construction.
// - Concurrency: all methods are safe for concurrent use.
type Image struct {
	src   image.Image
	scale float64

	encodeOnce sync.Once
	encoded    []byte
	encodeErr  error
}

// FromImage wraps a decoded image. A non-positive scale is treated as 1.
func FromImage(src image.Image, scale float64) *Image {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}
	return &Image{src: src, scale: scale}
}

// Source returns the underlying decoded image.
func (i *Image) Source() image.Image {
	return i.src
}

// Width returns the pixel width.
func (i *Image) Width() int {
	if i.src == nil {
		return 0
	}
	return i.src.Bounds().Dx()
}

// Height returns the pixel height.
func (i *Image) Height() int {
	if i.src == nil {
		return 0
	}
	return i.src.Bounds().Dy()
}

// Scale returns the device scale factor.
func (i *Image) Scale() float64 {
	return i.scale
}

// Cost approximates the memory footprint of the image as
// round(width * height * scale). It is monotonic in pixel area.
func (i *Image) Cost() int64 {
	return Cost(i.Width(), i.Height(), i.scale)
}

// Cost computes round(w * h * scale) for the given dimensions.
func Cost(w, h int, scale float64) int64 {
	if w <= 0 || h <= 0 || scale <= 0 {
		return 0
	}
	return int64(math.Round(float64(w) * float64(h) * scale))
}

// Encoded returns the canonical lossless encoding (PNG) of the pixel
// buffer. The result is computed once and shared; callers must not modify it.
func (i *Image) Encoded() ([]byte, error) {
	i.encodeOnce.Do(func() {
		if i.src == nil {
			i.encodeErr = ErrEmptyImage
			return
		}
		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(&buf, i.src); err != nil {
			i.encodeErr = err
			return
		}
		i.encoded = buf.Bytes()
	})
	return i.encoded, i.encodeErr
}

// Equal reports whether a and b hold the same pixels, comparing their
// canonical encodings rather than identity. Two nil images are equal.
func Equal(a, b *Image) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	ea, err := a.Encoded()
	if err != nil {
		return false
	}
	eb, err := b.Encoded()
	if err != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}
