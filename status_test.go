package buddhabrot

import "testing"

func TestStatus_String(t *testing.T) {
	tests := map[Status]string{
		Running:    "Running",
		Stopping:   "Stopping",
		Paused:     "Paused",
		Stopped:    "Stopped",
		Status(42): "Status(42)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestProgress(t *testing.T) {
	p := Progress{Done: 25, Target: 100}
	if r, ok := p.Ratio(); !ok || r != 0.25 {
		t.Errorf("Ratio() = %v, %v, want 0.25, true", r, ok)
	}
	if got := p.String(); got != "25 / 100" {
		t.Errorf("String() = %q", got)
	}

	unbounded := Progress{Done: 25}
	if _, ok := unbounded.Ratio(); ok {
		t.Error("Ratio() ok for an unbounded target")
	}
	if got := unbounded.String(); got != "25" {
		t.Errorf("String() = %q, want %q", got, "25")
	}
}
