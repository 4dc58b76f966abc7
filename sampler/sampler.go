// Package sampler draws candidate points for the generator and learns
// from the outcome of each one.
package sampler

import (
	"math/rand/v2"

	"github.com/marben/buddhabrot"
)

// Sampler produces candidate points and accepts feedback about them.
// Implementations are not safe for concurrent use.
type Sampler interface {
	// Sample returns a point and the path that produced it. The path is
	// handed back unchanged to Feedback.
	Sample() (complex128, Path)
	// Feedback reports that success out of total units were productive.
	Feedback(p Path, success, total uint64)
}

// New builds the sampler selected by props.
func New(props buddhabrot.Properties) Sampler {
	region := props.Region()
	if props.Sampler == buddhabrot.Uniform {
		return NewUniform(region)
	}
	return NewAdaptive(region, props.Layers, props.LayerResolution)
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Uniform draws points uniformly over a region and ignores feedback.
type Uniform struct {
	region buddhabrot.Region
	rng    *rand.Rand
}

func NewUniform(region buddhabrot.Region) *Uniform {
	return &Uniform{region: region, rng: newRand()}
}

func (u *Uniform) Sample() (complex128, Path) {
	return u.region.Uniform(u.rng), nil
}

func (u *Uniform) Feedback(Path, uint64, uint64) {}

var (
	_ Sampler = (*Uniform)(nil)
	_ Sampler = (*Adaptive)(nil)
)
