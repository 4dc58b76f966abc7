package buddhabrot

import "fmt"

// Status is the engine-level state observed from outside.
type Status int32

const (
	Stopped Status = iota
	Paused
	Running
	Stopping
)

func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	case Paused:
		return "Paused"
	case Stopped:
		return "Stopped"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Order is the command workers poll for.
type Order int32

const (
	Pause Order = iota
	Run
	FinishBatch
	Stop
)

func (o Order) String() string {
	switch o {
	case Run:
		return "Run"
	case Pause:
		return "Pause"
	case FinishBatch:
		return "FinishBatch"
	case Stop:
		return "Stop"
	default:
		return fmt.Sprintf("Order(%d)", int32(o))
	}
}

// Progress is a done/target pair. A zero target means unbounded.
type Progress struct {
	Done   uint64 `json:"done"`
	Target uint64 `json:"target"`
}

// Ratio returns Done/Target, or false when the target is unbounded.
func (p Progress) Ratio() (float64, bool) {
	if p.Target == 0 {
		return 0, false
	}
	return float64(p.Done) / float64(p.Target), true
}

func (p Progress) String() string {
	if p.Target == 0 {
		return fmt.Sprintf("%d", p.Done)
	}
	return fmt.Sprintf("%d / %d", p.Done, p.Target)
}
