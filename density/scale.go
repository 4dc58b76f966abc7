package density

import (
	"image"

	"golang.org/x/image/draw"
)

// Scale resizes src by factor. Downscaling averages neighbouring cells,
// upscaling keeps them sharp. A factor of 1 returns src itself.
func Scale(src *image.RGBA, factor float64) *image.RGBA {
	if factor == 1 {
		return src
	}
	b := src.Bounds()
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	var s draw.Scaler = draw.ApproxBiLinear
	if factor > 1 {
		s = draw.NearestNeighbor
	}
	s.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
