package cache_test

import (
	"context"
	"fmt"
	"image"
	"net/url"

	"github.com/jonwraymond/remoteimage/cache"
	"github.com/jonwraymond/remoteimage/raster"
)

func ExampleNewMemoryCache() {
	c := cache.NewMemoryCache(cache.DefaultLimits())
	ctx := context.Background()

	img := raster.FromImage(image.NewRGBA(image.Rect(0, 0, 16, 16)), 2)
	c.Set(ctx, "https://example.com/avatar.png", img)

	got, ok := c.Get(ctx, "https://example.com/avatar.png")
	fmt.Println("Found:", ok)
	fmt.Println("Cost:", got.Cost())
	// Output:
	// Found: true
	// Cost: 512
}

func ExampleMemoryCache_ConfigureLimits() {
	c := cache.NewMemoryCache(cache.Unbounded())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		c.Set(ctx, fmt.Sprintf("https://example.com/%d.png", i),
			raster.FromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), 1))
	}

	c.ConfigureLimits(2, 0)
	fmt.Println("Entries:", c.Len())
	// Output:
	// Entries: 2
}

func ExampleURLKeyer_Key() {
	u, _ := url.Parse("HTTPS://Images.Example.com:443/cat.png#top")
	fmt.Println(cache.NewURLKeyer().Key(u))
	// Output:
	// https://images.example.com/cat.png
}
