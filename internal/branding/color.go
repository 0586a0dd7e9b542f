package branding

import (
	"fmt"
	"image"
)

// DefaultHeaderColor is used when no logo is uploaded or no dominant color
// can be extracted.
const DefaultHeaderColor = "#282c34"

// colorSampleTarget bounds how many pixels per axis get sampled; large
// logos are strided rather than scanned pixel by pixel.
const colorSampleTarget = 256

// DominantColor picks the most common color in the image, quantized to 4
// bits per channel to merge near-identical shades. Mostly-transparent
// pixels are skipped so PNG logos on empty backgrounds do not resolve to
// black. Returns DefaultHeaderColor when nothing opaque is found.
func DominantColor(img image.Image) string {
	bounds := img.Bounds()
	if bounds.Empty() {
		return DefaultHeaderColor
	}

	stepX := bounds.Dx() / colorSampleTarget
	if stepX < 1 {
		stepX = 1
	}
	stepY := bounds.Dy() / colorSampleTarget
	if stepY < 1 {
		stepY = 1
	}

	type bucket struct {
		count   int
		r, g, b uint64
	}
	buckets := make(map[uint32]*bucket)

	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, a := img.At(x, y).RGBA()
			if a < 0x8000 {
				continue
			}
			r8, g8, b8 := r>>8, g>>8, b>>8
			key := (r8>>4)<<8 | (g8>>4)<<4 | (b8 >> 4)
			bk := buckets[key]
			if bk == nil {
				bk = &bucket{}
				buckets[key] = bk
			}
			bk.count++
			bk.r += uint64(r8)
			bk.g += uint64(g8)
			bk.b += uint64(b8)
		}
	}

	var best *bucket
	for _, bk := range buckets {
		if best == nil || bk.count > best.count {
			best = bk
		}
	}
	if best == nil {
		return DefaultHeaderColor
	}

	n := uint64(best.count)
	return fmt.Sprintf("#%02x%02x%02x", best.r/n, best.g/n, best.b/n)
}
