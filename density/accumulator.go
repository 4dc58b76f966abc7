// Package density holds the visit-count histogram of a Buddhabrot render
// and its tone mapping to a displayable image.
package density

import (
	"fmt"
	"image"
	"math"
	"sync"
)

// Pixel is one RGB triple of a rendered buffer.
type Pixel struct {
	R, G, B uint8
}

// Accumulator is a width×height grid of visit counters with a running
// maximum. It is safe for concurrent use.
type Accumulator struct {
	width, height int

	mu     sync.RWMutex
	counts []uint64
	max    uint64
}

// New returns an empty accumulator. It panics on non-positive sizes.
func New(width, height int) *Accumulator {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("density: invalid size %dx%d", width, height))
	}
	return &Accumulator{
		width:  width,
		height: height,
		counts: make([]uint64, width*height),
	}
}

func (a *Accumulator) Width() int  { return a.width }
func (a *Accumulator) Height() int { return a.height }

// Max returns the highest counter value.
func (a *Accumulator) Max() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.max
}

func (a *Accumulator) Read(x, y int) uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.counts[a.index(x, y)]
}

// Set overwrites a counter. The maximum only ever grows.
func (a *Accumulator) Set(x, y int, v uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts[a.index(x, y)] = v
	if v > a.max {
		a.max = v
	}
}

func (a *Accumulator) Increment(x, y int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.incr(x, y)
}

// IncrementAll increments every point while holding the lock once, so
// one orbit is never interleaved with another writer's.
func (a *Accumulator) IncrementAll(points []image.Point) {
	if len(points) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range points {
		a.incr(p.X, p.Y)
	}
}

func (a *Accumulator) incr(x, y int) {
	i := a.index(x, y)
	a.counts[i]++
	if a.counts[i] > a.max {
		a.max = a.counts[i]
	}
}

func (a *Accumulator) index(x, y int) int {
	if x < 0 || x >= a.width || y < 0 || y >= a.height {
		panic(fmt.Sprintf("density: (%d, %d) out of %dx%d", x, y, a.width, a.height))
	}
	return x + a.width*y
}

// Render tone maps every counter into a row-major RGB buffer.
func (a *Accumulator) Render() []Pixel {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]Pixel, len(a.counts))
	if a.max == 0 {
		return out
	}
	for i, c := range a.counts {
		v := tone(c, a.max)
		out[i] = Pixel{v, v, v}
	}
	return out
}

// RGBA is Render as an opaque image, row 0 first.
func (a *Accumulator) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, a.width, a.height))

	a.mu.RLock()
	defer a.mu.RUnlock()
	for i, c := range a.counts {
		var v uint8
		if a.max != 0 {
			v = tone(c, a.max)
		}
		o := i * 4
		img.Pix[o+0] = v
		img.Pix[o+1] = v
		img.Pix[o+2] = v
		img.Pix[o+3] = 0xff
	}
	return img
}

// tone compresses high counts and lifts low densities:
// (2·√f − f)·255 with f = count/max.
func tone(count, max uint64) uint8 {
	frac := float64(count) / float64(max)
	v := (-frac + 2*math.Sqrt(frac)) * 255
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
