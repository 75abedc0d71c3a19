package raster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestCost(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		scale float64
		want  int64
	}{
		{"unit scale", 10, 20, 1, 200},
		{"retina", 10, 20, 2, 400},
		{"fractional rounds", 3, 3, 1.5, 14},
		{"zero width", 0, 20, 1, 0},
		{"negative scale", 10, 10, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cost(tt.w, tt.h, tt.scale); got != tt.want {
				t.Errorf("Cost(%d, %d, %v) = %d, want %d", tt.w, tt.h, tt.scale, got, tt.want)
			}
		})
	}
}

func TestImage_CostMonotonicInArea(t *testing.T) {
	small := FromImage(solid(4, 4, color.White), 2)
	large := FromImage(solid(8, 8, color.White), 2)

	if small.Cost() >= large.Cost() {
		t.Errorf("Cost not monotonic: small=%d large=%d", small.Cost(), large.Cost())
	}
}

func TestFromImage_NormalizesScale(t *testing.T) {
	img := FromImage(solid(1, 1, color.Black), 0)
	if img.Scale() != 1 {
		t.Errorf("Scale() = %v, want 1", img.Scale())
	}
}

func TestEqual(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}

	a := FromImage(solid(3, 2, red), 1)
	b := FromImage(solid(3, 2, red), 1)
	c := FromImage(solid(3, 2, blue), 1)

	if !Equal(a, b) {
		t.Error("separately built images with identical pixels should be equal")
	}
	if Equal(a, c) {
		t.Error("images with different pixels should not be equal")
	}
	if !Equal(nil, nil) {
		t.Error("nil images should be equal")
	}
	if Equal(a, nil) {
		t.Error("image should not equal nil")
	}
}

func TestImage_EncodedIsMemoized(t *testing.T) {
	img := FromImage(solid(2, 2, color.White), 1)

	first, err := img.Encoded()
	if err != nil {
		t.Fatalf("Encoded failed: %v", err)
	}
	second, _ := img.Encoded()
	if &first[0] != &second[0] {
		t.Error("Encoded should return the memoized buffer")
	}
}

func TestDecoder_Formats(t *testing.T) {
	src := solid(5, 7, color.RGBA{G: 200, A: 255})

	var jpg, gf bytes.Buffer
	if err := jpeg.Encode(&jpg, src, nil); err != nil {
		t.Fatalf("jpeg.Encode failed: %v", err)
	}
	if err := gif.Encode(&gf, src, nil); err != nil {
		t.Fatalf("gif.Encode failed: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"png", encodePNG(t, src)},
		{"jpeg", jpg.Bytes()},
		{"gif", gf.Bytes()},
	}

	dec := NewDecoder(2)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := dec.Decode(tt.data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if img.Width() != 5 || img.Height() != 7 {
				t.Errorf("bounds = %dx%d, want 5x7", img.Width(), img.Height())
			}
			if img.Scale() != 2 {
				t.Errorf("Scale() = %v, want 2", img.Scale())
			}
			if img.Cost() != 70 {
				t.Errorf("Cost() = %d, want 70", img.Cost())
			}
		})
	}
}

func TestDecoder_InvalidPayload(t *testing.T) {
	dec := NewDecoder(1)

	for name, data := range map[string][]byte{
		"empty":     nil,
		"html":      []byte("<html>not an image</html>"),
		"truncated": encodePNG(t, solid(4, 4, color.White))[:20],
	} {
		t.Run(name, func(t *testing.T) {
			img, err := dec.Decode(data)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("Decode error = %v, want ErrDecode", err)
			}
			if img != nil {
				t.Error("Decode should return nil image on error")
			}
		})
	}
}

// withDimensions rewrites the IHDR chunk of a PNG to declare w x h.
func withDimensions(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := bytes.Clone(data)
	if string(out[12:16]) != "IHDR" {
		t.Fatalf("unexpected first chunk %q", out[12:16])
	}
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecoder_OversizedHeader(t *testing.T) {
	data := withDimensions(t, encodePNG(t, solid(1, 1, color.White)), 60000, 60000)

	img, err := NewDecoder(1).Decode(data)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Decode error = %v, want ErrDecode", err)
	}
	if img != nil {
		t.Error("Decode should return nil image on error")
	}
}

func TestDecoder_MaxPixels(t *testing.T) {
	data := encodePNG(t, solid(4, 4, color.White))

	tests := []struct {
		name    string
		max     int64
		wantErr bool
	}{
		{"under limit", 17, false},
		{"at limit", 16, false},
		{"over limit", 15, true},
		{"unbounded", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(1, WithMaxPixels(tt.max)).Decode(data)
			if tt.wantErr != errors.Is(err, ErrDecode) {
				t.Errorf("Decode error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if got := NewDecoder(1).MaxPixels(); got != DefaultMaxPixels {
		t.Errorf("MaxPixels() = %d, want %d", got, DefaultMaxPixels)
	}
}

func TestDecoderFunc(t *testing.T) {
	want := FromImage(solid(1, 1, color.Black), 1)
	var d Decoder = DecoderFunc(func([]byte) (*Image, error) { return want, nil })

	got, err := d.Decode([]byte("x"))
	if err != nil || got != want {
		t.Errorf("DecoderFunc.Decode = (%v, %v), want (%v, nil)", got, err, want)
	}
}
