package sampler

import (
	"math/rand/v2"

	"github.com/marben/buddhabrot"
)

// Adaptive samples the leaf cell chosen by a search Tree.
type Adaptive struct {
	region buddhabrot.Region
	tree   *Tree
	rng    *rand.Rand
}

func NewAdaptive(region buddhabrot.Region, layers, resolution int) *Adaptive {
	return &Adaptive{
		region: region,
		tree:   NewTree(layers, resolution),
		rng:    newRand(),
	}
}

func (a *Adaptive) Tree() *Tree { return a.tree }

// Sample shrinks the region along the tree's best path and draws one
// point uniformly inside the resulting leaf cell.
func (a *Adaptive) Sample() (complex128, Path) {
	p := a.tree.SamplePath()
	return a.Leaf(p).Uniform(a.rng), p
}

func (a *Adaptive) Feedback(p Path, success, total uint64) {
	a.tree.Feedback(p, success, total)
}

// Leaf returns the cell of the region addressed by p.
func (a *Adaptive) Leaf(p Path) buddhabrot.Region {
	r := a.region
	for _, c := range p {
		r = r.Cell(c.X, c.Y, a.tree.resolution)
	}
	return r
}
