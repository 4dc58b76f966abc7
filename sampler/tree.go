package sampler

import (
	"fmt"
	"math"
)

// Coord selects one cell of a node's res×res grid.
type Coord struct {
	X, Y int
}

// Path lists the cells chosen from the root down to a leaf.
type Path []Coord

// Tree is a Monte-Carlo search tree over a recursive grid subdivision.
// Every node keeps a (success, total) pair and children are scored with
// UCB1, so cells whose orbits land in the image more often get sampled
// more, while unvisited cells are always tried first.
//
// Nodes live in one slice and refer to each other by index. The children
// of a node are contiguous, ordered by X then Y.
type Tree struct {
	layers     int
	resolution int
	total      uint64
	nodes      []node
}

type node struct {
	parent     int // -1 for the root
	firstChild int // -1 for leaves
	success    uint64
	total      uint64
}

// NewTree builds a tree of the given depth. A zero depth yields a lone
// root and empty paths.
func NewTree(layers, resolution int) *Tree {
	if layers < 0 || resolution < 1 {
		panic(fmt.Sprintf("sampler: invalid tree %d layers x %d", layers, resolution))
	}
	t := &Tree{layers: layers, resolution: resolution}
	t.nodes = append(t.nodes, node{parent: -1, firstChild: -1})

	cells := resolution * resolution
	level := []int{0}
	for range layers {
		next := make([]int, 0, len(level)*cells)
		for _, n := range level {
			t.nodes[n].firstChild = len(t.nodes)
			for range cells {
				next = append(next, len(t.nodes))
				t.nodes = append(t.nodes, node{parent: n, firstChild: -1})
			}
		}
		level = next
	}
	return t
}

func (t *Tree) Layers() int     { return t.layers }
func (t *Tree) Resolution() int { return t.resolution }

// Total is the sum of every total ever fed back.
func (t *Tree) Total() uint64 { return t.total }

// Len is the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// SamplePath descends from the root picking the best scored child at
// each level. It does not modify the tree.
func (t *Tree) SamplePath() Path {
	p := make(Path, 0, t.layers)
	for n := 0; t.nodes[n].firstChild >= 0; {
		first := t.nodes[n].firstChild
		best, bestScore := 0, math.Inf(-1)
		for i := range t.resolution * t.resolution {
			if s := t.score(first + i); s > bestScore {
				best, bestScore = i, s
			}
		}
		p = append(p, t.coord(best))
		n = first + best
	}
	return p
}

// Feedback adds (success, total) to every node along p. p must come from
// SamplePath on this tree.
func (t *Tree) Feedback(p Path, success, total uint64) {
	t.total += total

	n := 0
	for i := 0; ; i++ {
		t.nodes[n].success += success
		t.nodes[n].total += total
		if i == len(p) {
			return
		}
		n = t.child(n, p[i])
	}
}

// Stats returns the (success, total) pair of the node reached by p.
func (t *Tree) Stats(p Path) (success, total uint64) {
	n := 0
	for _, c := range p {
		n = t.child(n, c)
	}
	return t.nodes[n].success, t.nodes[n].total
}

// score is UCB1 against the parent's total. Unvisited nodes score +Inf.
func (t *Tree) score(n int) float64 {
	nd := t.nodes[n]
	if nd.total == 0 {
		return math.Inf(1)
	}
	local := float64(nd.total)
	parent := float64(t.nodes[nd.parent].total)
	return float64(nd.success)/local + math.Sqrt(2*math.Log(parent)/local)
}

func (t *Tree) child(n int, c Coord) int {
	first := t.nodes[n].firstChild
	if first < 0 || c.X < 0 || c.X >= t.resolution || c.Y < 0 || c.Y >= t.resolution {
		panic(fmt.Sprintf("sampler: path step %v not in tree", c))
	}
	return first + c.X*t.resolution + c.Y
}

func (t *Tree) coord(i int) Coord {
	return Coord{X: i / t.resolution, Y: i % t.resolution}
}
