// Package raster holds decoded images and the decoder that produces them.
//
// An Image carries the device scale factor it was decoded for, which feeds
// the cache cost model:
//
//	cost = round(width * height * scale)
//
// Image equality is defined on the canonical PNG encoding of the pixel
// buffer, so two separately decoded copies of the same picture compare
// equal even though they are different values.
package raster
