// Package wire holds the JSON documents exchanged between the server and
// its clients.
package wire

import (
	"fmt"
	"strings"
	"time"

	"github.com/marben/buddhabrot"
)

// Snapshot is the state of a generator at one instant. The server sends
// it in reply to every request and streams it over the websocket.
type Snapshot struct {
	Time       time.Time                    `json:"time"`
	Status     string                       `json:"status"`
	Threads    []buddhabrot.Progress        `json:"threads"`
	Pool       buddhabrot.Progress          `json:"pool"`
	Total      buddhabrot.Progress          `json:"total"`
	Properties Properties                   `json:"properties"`
	Parameters buddhabrot.Parameters        `json:"parameters"`
	Runtime    buddhabrot.RuntimeParameters `json:"runtime"`
	Viewers    int                          `json:"viewers"`
}

// Source is what a snapshot is taken from.
type Source interface {
	buddhabrot.Observer
	Properties() buddhabrot.Properties
	Parameters() buddhabrot.Parameters
	RuntimeParameters() buddhabrot.RuntimeParameters
}

// Take snapshots s.
func Take(s Source, now time.Time) Snapshot {
	return Snapshot{
		Time:       now,
		Status:     s.Status().String(),
		Threads:    s.Progress(),
		Pool:       s.PoolProgress(),
		Total:      s.TotalProgress(),
		Properties: FromProperties(s.Properties()),
		Parameters: s.Parameters(),
		Runtime:    s.RuntimeParameters(),
	}
}

// Rate is the number of points per second committed between two
// snapshots. It is zero when time did not advance or the engine was
// rebuilt in between.
func Rate(prev, cur Snapshot) float64 {
	dt := cur.Time.Sub(prev.Time).Seconds()
	if dt <= 0 || cur.Total.Done < prev.Total.Done {
		return 0
	}
	return float64(cur.Total.Done-prev.Total.Done) / dt
}

// Properties is buddhabrot.Properties in a JSON friendly shape.
type Properties struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Xmin       float64 `json:"xmin"`
	Xmax       float64 `json:"xmax"`
	Ymin       float64 `json:"ymin"`
	Ymax       float64 `json:"ymax"`
	Sampler    string  `json:"sampler"`
	Layers     int     `json:"layers"`
	Resolution int     `json:"resolution"`
}

func FromProperties(p buddhabrot.Properties) Properties {
	r := p.Region()
	return Properties{
		Width:      p.Width,
		Height:     p.Height,
		Xmin:       r.Xmin,
		Xmax:       r.Xmax,
		Ymin:       r.Ymin,
		Ymax:       r.Ymax,
		Sampler:    p.Sampler.String(),
		Layers:     p.Layers,
		Resolution: p.LayerResolution,
	}
}

// Build converts and validates p.
func (p Properties) Build() (buddhabrot.Properties, error) {
	kind, err := buddhabrot.ParseSamplerKind(p.Sampler)
	if err != nil {
		return buddhabrot.Properties{}, err
	}
	props := buddhabrot.Properties{
		Width:           p.Width,
		Height:          p.Height,
		CornerA:         complex(p.Xmin, p.Ymin),
		CornerB:         complex(p.Xmax, p.Ymax),
		Sampler:         kind,
		Layers:          p.Layers,
		LayerResolution: p.Resolution,
	}
	return props, props.Validate()
}

// Control actions accepted by the server under /control/.
const (
	ActionInitiate = "initiate"
	ActionResume   = "resume"
	ActionPause    = "pause"
	ActionFinish   = "finish"
	ActionStop     = "stop"
)

// Error is the body of every non-2xx response.
type Error struct {
	Error string `json:"error"`
}

// Describe formats a snapshot for humans, one line per counter. Ratios
// are shown only for bounded targets.
func Describe(s Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "status:  %s\n", s.Status)
	fmt.Fprintf(&b, "image:   %dx%d %s, [%g, %g]x[%g, %g]\n", s.Properties.Width, s.Properties.Height,
		s.Properties.Sampler, s.Properties.Xmin, s.Properties.Xmax, s.Properties.Ymin, s.Properties.Ymax)
	fmt.Fprintf(&b, "total:   %s%s\n", s.Total, percent(s.Total.Ratio()))
	fmt.Fprintf(&b, "pool:    %s%s\n", s.Pool, percent(s.Pool.Ratio()))
	for i, t := range s.Threads {
		fmt.Fprintf(&b, "  #%-2d   %s%s\n", i, t, percent(t.Ratio()))
	}
	fmt.Fprintf(&b, "viewers: %d\n", s.Viewers)
	return b.String()
}

func percent(r float64, ok bool) string {
	if !ok {
		return ""
	}
	return fmt.Sprintf(" (%.1f%%)", r*100)
}
