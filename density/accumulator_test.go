package density

import (
	"image"
	"sync"
	"testing"
)

// =============================================================================
// Counters
// =============================================================================

func TestAccumulator_Increment(t *testing.T) {
	a := New(4, 3)

	a.Increment(1, 2)
	a.Increment(1, 2)
	a.Increment(3, 0)

	if got := a.Read(1, 2); got != 2 {
		t.Errorf("Read(1, 2) = %d, want 2", got)
	}
	if got := a.Read(3, 0); got != 1 {
		t.Errorf("Read(3, 0) = %d, want 1", got)
	}
	if got := a.Read(0, 0); got != 0 {
		t.Errorf("Read(0, 0) = %d, want 0", got)
	}
	if got := a.Max(); got != 2 {
		t.Errorf("Max() = %d, want 2", got)
	}
}

func TestAccumulator_SetKeepsMax(t *testing.T) {
	a := New(2, 2)

	a.Set(0, 0, 10)
	if got := a.Max(); got != 10 {
		t.Fatalf("Max() = %d, want 10", got)
	}
	a.Set(0, 0, 3)
	if got := a.Max(); got != 10 {
		t.Errorf("Max() after lowering = %d, want 10", got)
	}
	a.Increment(1, 1)
	if got := a.Max(); got != 10 {
		t.Errorf("Max() = %d, want 10", got)
	}
}

func TestAccumulator_IncrementAll(t *testing.T) {
	a := New(3, 3)
	a.IncrementAll([]image.Point{{0, 0}, {2, 2}, {2, 2}, {1, 0}})
	a.IncrementAll(nil)

	want := map[image.Point]uint64{{0, 0}: 1, {2, 2}: 2, {1, 0}: 1}
	for y := range 3 {
		for x := range 3 {
			if got := a.Read(x, y); got != want[image.Pt(x, y)] {
				t.Errorf("Read(%d, %d) = %d, want %d", x, y, got, want[image.Pt(x, y)])
			}
		}
	}
}

func TestAccumulator_OutOfBoundsPanics(t *testing.T) {
	tests := []struct {
		name string
		x, y int
	}{
		{"negative x", -1, 0},
		{"negative y", 0, -1},
		{"x at width", 4, 0},
		{"y at height", 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(4, 3)
			defer func() {
				if recover() == nil {
					t.Errorf("Increment(%d, %d) did not panic", tt.x, tt.y)
				}
			}()
			a.Increment(tt.x, tt.y)
		})
	}
}

func TestAccumulator_Concurrent(t *testing.T) {
	a := New(8, 8)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				a.IncrementAll([]image.Point{{3, 4}, {5, 6}})
			}
		}()
	}
	wg.Wait()

	if got := a.Read(3, 4); got != 8000 {
		t.Errorf("Read(3, 4) = %d, want 8000", got)
	}
	if got := a.Max(); got != 8000 {
		t.Errorf("Max() = %d, want 8000", got)
	}
}

// =============================================================================
// Tone mapping
// =============================================================================

func TestAccumulator_RenderEmpty(t *testing.T) {
	a := New(5, 4)
	buf := a.Render()
	if len(buf) != 20 {
		t.Fatalf("len(Render()) = %d, want 20", len(buf))
	}
	for i, p := range buf {
		if p != (Pixel{}) {
			t.Fatalf("Render()[%d] = %v, want black", i, p)
		}
	}
}

func TestAccumulator_RenderCurve(t *testing.T) {
	a := New(4, 1)
	a.Set(0, 0, 100) // frac 1    -> 255
	a.Set(1, 0, 25)  // frac 0.25 -> (1 - 0.25) * 255 = 191.25
	a.Set(2, 0, 1)   // frac 0.01 -> 0.19 * 255 = 48.45
	// (3, 0) stays 0

	want := []uint8{255, 191, 48, 0}
	buf := a.Render()
	for i, w := range want {
		if buf[i] != (Pixel{w, w, w}) {
			t.Errorf("Render()[%d] = %v, want %d", i, buf[i], w)
		}
	}
}

func TestAccumulator_RenderRowMajor(t *testing.T) {
	a := New(3, 2)
	a.Increment(2, 1)

	buf := a.Render()
	if buf[5].R != 255 {
		t.Errorf("Render()[5] = %v, want the incremented cell", buf[5])
	}
	for i := range 5 {
		if buf[i].R != 0 {
			t.Errorf("Render()[%d] = %v, want 0", i, buf[i])
		}
	}
}

func TestAccumulator_RGBAMatchesRender(t *testing.T) {
	a := New(3, 2)
	a.Set(0, 0, 9)
	a.Set(1, 1, 4)
	a.Set(2, 1, 1)

	buf := a.Render()
	img := a.RGBA()
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("RGBA().Bounds() = %v", img.Bounds())
	}
	for y := range 2 {
		for x := range 3 {
			c := img.RGBAAt(x, y)
			p := buf[x+3*y]
			if c.R != p.R || c.G != p.G || c.B != p.B || c.A != 0xff {
				t.Errorf("RGBAAt(%d, %d) = %v, want %v", x, y, c, p)
			}
		}
	}
}
