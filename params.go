package buddhabrot

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidProperties = errors.New("invalid properties")
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrInvalidRuntime    = errors.New("invalid runtime parameters")
)

// MaxTreeNodes bounds the size of the adaptive sampling tree.
const MaxTreeNodes = 1 << 22

// SamplerKind selects how candidate points are drawn.
type SamplerKind int

const (
	// Adaptive biases samples toward productive cells with a search tree.
	Adaptive SamplerKind = iota
	// Uniform draws every sample uniformly over the region.
	Uniform
)

func (k SamplerKind) String() string {
	switch k {
	case Adaptive:
		return "adaptive"
	case Uniform:
		return "uniform"
	default:
		return fmt.Sprintf("SamplerKind(%d)", int(k))
	}
}

// ParseSamplerKind is the inverse of SamplerKind.String.
func ParseSamplerKind(s string) (SamplerKind, error) {
	switch strings.ToLower(s) {
	case "adaptive", "montecarlo", "monte-carlo":
		return Adaptive, nil
	case "uniform":
		return Uniform, nil
	}
	return 0, fmt.Errorf("unknown sampler %q", s)
}

// Properties cannot be changed once a generator has been created.
type Properties struct {
	Width, Height int
	// CornerA and CornerB may be given in any order.
	CornerA, CornerB complex128

	Sampler SamplerKind
	// Layers is the depth of the adaptive tree, LayerResolution the
	// number of cells along each axis at every layer.
	Layers          int
	LayerResolution int
}

func DefaultProperties() Properties {
	a, b := FullView.Corners()
	return Properties{
		Width:           720,
		Height:          720,
		CornerA:         a,
		CornerB:         b,
		Sampler:         Adaptive,
		Layers:          2,
		LayerResolution: 8,
	}
}

// Region is the normalized sampling rectangle.
func (p Properties) Region() Region {
	return NewRegion(p.CornerA, p.CornerB)
}

// TreeNodes is the number of nodes of the adaptive tree, or -1 when it
// exceeds MaxTreeNodes.
func (p Properties) TreeNodes() int {
	nodes, layer := 1, 1
	cells := p.LayerResolution * p.LayerResolution
	for range p.Layers {
		layer *= cells
		nodes += layer
		if layer > MaxTreeNodes || nodes > MaxTreeNodes {
			return -1
		}
	}
	return nodes
}

func (p Properties) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidProperties, p.Width, p.Height)
	}
	if p.Region().Empty() {
		return fmt.Errorf("%w: region %v..%v has no area", ErrInvalidProperties, p.CornerA, p.CornerB)
	}
	switch p.Sampler {
	case Uniform:
	case Adaptive:
		if p.Layers < 0 {
			return fmt.Errorf("%w: %d layers", ErrInvalidProperties, p.Layers)
		}
		if p.LayerResolution < 1 {
			return fmt.Errorf("%w: layer resolution %d", ErrInvalidProperties, p.LayerResolution)
		}
		if p.TreeNodes() < 0 {
			return fmt.Errorf("%w: tree of %d layers at resolution %d exceeds %d nodes",
				ErrInvalidProperties, p.Layers, p.LayerResolution, MaxTreeNodes)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidProperties, p.Sampler)
	}
	return nil
}

// Parameters control the behavior of sequences.
type Parameters struct {
	// MaxIterations is the number of updates after which an orbit is
	// considered bounded and rejected.
	MaxIterations uint64 `json:"max_iterations"`
	// MinIterations is the shortest escape accepted into the image.
	MinIterations uint64 `json:"min_iterations"`
	// EscapeNorm is compared against the squared magnitude.
	EscapeNorm float64 `json:"escape_norm"`
	// Symmetry mirrors every accepted point across the horizontal axis of
	// the image.
	Symmetry bool `json:"symmetry"`
}

func DefaultParameters() Parameters {
	return Parameters{
		MaxIterations: 1_000_000,
		MinIterations: 100_000,
		EscapeNorm:    4.0,
	}
}

func (p Parameters) Validate() error {
	if p.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be positive", ErrInvalidParameters)
	}
	if !(p.EscapeNorm > 0) {
		return fmt.Errorf("%w: escape norm %v", ErrInvalidParameters, p.EscapeNorm)
	}
	return nil
}

// RuntimeParameters describe how the computation is dispatched. Zero
// PoolBatchSize or PointsTarget means unbounded.
type RuntimeParameters struct {
	Threads         int    `json:"threads"`
	PoolBatchSize   uint64 `json:"pool_batch_size"`
	ThreadBatchSize uint64 `json:"thread_batch_size"`
	PointsTarget    uint64 `json:"points_target"`
}

func DefaultRuntimeParameters() RuntimeParameters {
	return RuntimeParameters{
		Threads:         4,
		PoolBatchSize:   100_000,
		ThreadBatchSize: 25_000,
		PointsTarget:    0,
	}
}

func (r RuntimeParameters) Validate() error {
	if r.Threads < 1 {
		return fmt.Errorf("%w: %d threads", ErrInvalidRuntime, r.Threads)
	}
	return nil
}
