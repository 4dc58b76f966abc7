package buddhabrot

// Orbit is the sequence visited by z ← z² + c starting at z = c.
type Orbit struct {
	// Points holds every visited value, the escaping one included.
	Points []complex128
	// Iterations is the number of updates applied.
	Iterations uint64
	Escaped    bool
}

// Accepted reports whether the orbit contributes to the image: it must
// escape, not on its very first value, and not before minIterations.
func (o Orbit) Accepted(minIterations uint64) bool {
	return o.Escaped && o.Iterations > 0 && o.Iterations >= minIterations
}

// Evaluate iterates c until |z|² ≥ escapeNorm or maxIterations updates
// have been applied without escaping.
func Evaluate(c complex128, maxIterations uint64, escapeNorm float64) Orbit {
	return EvaluateInto(nil, c, maxIterations, escapeNorm)
}

// EvaluateInto is Evaluate reusing buf for the orbit points.
func EvaluateInto(buf []complex128, c complex128, maxIterations uint64, escapeNorm float64) Orbit {
	points := buf[:0]
	z := c
	for i := uint64(0); ; i++ {
		points = append(points, z)
		if norm(z) >= escapeNorm {
			return Orbit{Points: points, Iterations: i, Escaped: true}
		}
		if i == maxIterations {
			return Orbit{Points: points, Iterations: i}
		}
		z = z*z + c
	}
}

// InsideKnownRegions reports whether c lies in the main cardioid or the
// period-2 bulb. Orbits of such points never escape.
func InsideKnownRegions(c complex128) bool {
	x, y := real(c), imag(c)
	y2 := y * y
	q := (x-0.25)*(x-0.25) + y2
	if q*(q+x-0.25) < 0.25*y2 {
		return true
	}
	return (x+1)*(x+1)+y2 < 0.0625
}

func norm(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}
