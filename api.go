package buddhabrot

import (
	"image"
)

// Controller drives a generator. Calls that make no sense in the current
// status are ignored.
type Controller interface {
	Initiate()
	Resume()
	Pause()
	FinishBatch()
	Stop()
	SetParameters(p Parameters) error
	SetRuntimeParameters(r RuntimeParameters) error
}

// Observer exposes lock-protected snapshots of a generator's state.
type Observer interface {
	Status() Status
	Progress() []Progress
	PoolProgress() Progress
	TotalProgress() Progress
}

// ImgProvider renders the current density image.
type ImgProvider interface {
	Image() *image.RGBA
}

// Generator is everything a presentation layer needs.
type Generator interface {
	Controller
	Observer
	ImgProvider
}
