package observe

import (
	"errors"
	"net/url"
	"testing"
)

func testMeta(t *testing.T) ImageMeta {
	t.Helper()
	u, err := url.Parse("https://user:pw@cdn.example.com/img/cat.png?sig=abc123#top")
	if err != nil {
		t.Fatal(err)
	}
	return ImageMeta{URL: u, Controller: "c1"}
}

func TestImageMeta_Location(t *testing.T) {
	meta := testMeta(t)
	if got, want := meta.Location(), "https://cdn.example.com/img/cat.png"; got != want {
		t.Errorf("Location() = %q, want %q", got, want)
	}
	if meta.URL.RawQuery != "sig=abc123" || meta.URL.User == nil {
		t.Error("Location() must not mutate the URL")
	}
}

func TestImageMeta_Host(t *testing.T) {
	if got := testMeta(t).Host(); got != "cdn.example.com" {
		t.Errorf("Host() = %q, want cdn.example.com", got)
	}
	if got := (ImageMeta{}).Host(); got != "" {
		t.Errorf("Host() on empty meta = %q, want empty", got)
	}
}

func TestImageMeta_SpanName(t *testing.T) {
	if got := testMeta(t).SpanName(); got != "image.load" {
		t.Errorf("SpanName() = %q, want image.load", got)
	}
}

func TestImageMeta_Validate(t *testing.T) {
	if err := testMeta(t).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if err := (ImageMeta{Controller: "c1"}).Validate(); !errors.Is(err, ErrMissingImageURL) {
		t.Errorf("Validate() = %v, want ErrMissingImageURL", err)
	}
}
