package buddhabrot

import (
	"math/rand/v2"
	"strings"
)

// Region within the complex plane. X is the real axis, Y the imaginary one.
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// NewRegion returns the rectangle spanned by two corners, in any order.
func NewRegion(a, b complex128) Region {
	return Region{
		Xmin: min(real(a), real(b)),
		Xmax: max(real(a), real(b)),
		Ymin: min(imag(a), imag(b)),
		Ymax: max(imag(a), imag(b)),
	}
}

func (r Region) Dx() float64 { return r.Xmax - r.Xmin }
func (r Region) Dy() float64 { return r.Ymax - r.Ymin }

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return !(r.Dx() > 0) || !(r.Dy() > 0)
}

// Contains reports whether z lies in the half-open rectangle [min, max).
func (r Region) Contains(z complex128) bool {
	x, y := real(z), imag(z)
	return r.Xmin <= x && x < r.Xmax && r.Ymin <= y && y < r.Ymax
}

// Cell returns the (x, y) sub-rectangle of a res×res grid laid over r.
func (r Region) Cell(x, y, res int) Region {
	dx := r.Dx() / float64(res)
	dy := r.Dy() / float64(res)
	return Region{
		Xmin: r.Xmin + dx*float64(x),
		Xmax: r.Xmin + dx*float64(x+1),
		Ymin: r.Ymin + dy*float64(y),
		Ymax: r.Ymin + dy*float64(y+1),
	}
}

// Pixel maps z linearly onto a w×h grid. ok is false when z falls outside
// the region or rounding pushes it past the last column or row.
func (r Region) Pixel(z complex128, w, h int) (x, y int, ok bool) {
	if !r.Contains(z) {
		return 0, 0, false
	}
	x = int((real(z) - r.Xmin) / r.Dx() * float64(w))
	y = int((imag(z) - r.Ymin) / r.Dy() * float64(h))
	if x < 0 || x >= w || y < 0 || y >= h {
		return 0, 0, false
	}
	return x, y, true
}

// Uniform draws a point uniformly inside r.
func (r Region) Uniform(rng *rand.Rand) complex128 {
	return complex(r.Xmin+rng.Float64()*r.Dx(), r.Ymin+rng.Float64()*r.Dy())
}

// Corners returns the lower-left and upper-right corners.
func (r Region) Corners() (a, b complex128) {
	return complex(r.Xmin, r.Ymin), complex(r.Xmax, r.Ymax)
}

// Classic framings. FullView holds the whole Buddhabrot, the rest are
// landmarks of the Mandelbrot set worth a zoomed density render.
var (
	// FullView – the whole figure, Buddhabrot lying on its side
	FullView = Region{
		Xmin: -2.25,
		Xmax: 0.75,
		Ymin: -1.5,
		Ymax: 1.5,
	}

	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = Region{
		Xmin: -0.8,
		Xmax: -0.7,
		Ymin: 0.05,
		Ymax: 0.15,
	}

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = Region{
		Xmin: 0.25,
		Xmax: 0.35,
		Ymin: -0.05,
		Ymax: 0.05,
	}

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = Region{
		Xmin: -0.7435,
		Xmax: -0.7420,
		Ymin: 0.1310,
		Ymax: 0.1325,
	}

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = Region{
		Xmin: -0.7480,
		Xmax: -0.7450,
		Ymin: 0.0950,
		Ymax: 0.0980,
	}

	// Valley of the Dragon – deep, highly detailed spiral filaments
	ValleyOfTheDragon = Region{
		Xmin: -0.7400,
		Xmax: -0.7350,
		Ymin: 0.1800,
		Ymax: 0.1850,
	}

	// Minibrot in a Mini-Spiral – self-similar Mandelbrot copy inside a spiral arm
	MinibrotInMiniSpiral = Region{
		Xmin: -1.7390,
		Xmax: -1.7375,
		Ymin: -0.0235,
		Ymax: -0.0220,
	}
)

var regionsByName = map[string]Region{
	"full":                 FullView,
	"seahorsevalley":       SeahorseValley,
	"elephantvalley":       ElephantValley,
	"spiralminibrot":       SpiralMinibrot,
	"triplespiral":         TripleSpiral,
	"valleyofthedragon":    ValleyOfTheDragon,
	"minibrotinminispiral": MinibrotInMiniSpiral,
}

// RegionByName looks a preset up, ignoring case, dashes and underscores.
func RegionByName(name string) (Region, bool) {
	key := strings.ToLower(name)
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	r, ok := regionsByName[key]
	return r, ok
}
