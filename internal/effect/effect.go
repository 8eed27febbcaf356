// Package effect holds effect generators that animate a segment through its
// public API, typically using the per-LED height table.
package effect

import "github.com/coreman2200/funtimes-suitstrip/model"

// Effect advances one frame at clock time now (milliseconds). It reports true
// once it has finished and should be dropped.
type Effect interface {
	Step(now uint64, s *model.Segment) bool
}

// Stopper is implemented by effects that leave segment state behind. Stop is
// called when the effect is replaced or removed before it finished and puts
// back what the effect changed.
type Stopper interface {
	Stop(s *model.Segment)
}
