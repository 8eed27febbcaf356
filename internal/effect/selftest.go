package effect

import (
	"fmt"

	"github.com/coreman2200/funtimes-suitstrip/model"
)

type Kind string

const (
	IndexSweep  Kind = "index_sweep"
	RGBChannels Kind = "rgb_channels"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case IndexSweep, RGBChannels:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown self test %q", s)
}

// SelfTest walks diagnostic patterns over the debug mutators, holding each
// step for Hold frames. The segment runs in the smoothing regime while the
// test runs so the patterns show even on a live segment. It leaves the
// segment black when done.
type SelfTest struct {
	kind Kind
	Hold int
	tick int

	started  bool
	done     bool
	prevLive bool
}

func NewSelfTest(kind Kind, hold int) *SelfTest {
	if hold <= 0 {
		hold = 1
	}
	return &SelfTest{kind: kind, Hold: hold}
}

func (r *SelfTest) Kind() Kind { return r.kind }

func (r *SelfTest) Step(_ uint64, s *model.Segment) bool {
	if !r.started {
		r.started = true
		r.prevLive = s.LiveMode()
		s.SetLiveMode(false)
	}
	if r.tick%r.Hold == 0 {
		if !r.apply(r.tick/r.Hold, s) {
			r.Stop(s)
			return true
		}
	}
	r.tick++
	return false
}

// Stop blanks the segment and restores its live mode.
func (r *SelfTest) Stop(s *model.Segment) {
	if !r.started || r.done {
		return
	}
	r.done = true
	s.SetAllColor(0, 0, 0)
	s.SetLiveMode(r.prevLive)
}

// apply sets up pattern step n; false once the pattern is exhausted.
func (r *SelfTest) apply(n int, s *model.Segment) bool {
	switch r.kind {
	case IndexSweep:
		if n >= s.LEDCount() {
			return false
		}
		s.SetAllColor(0, 0, 0)
		_ = s.SetColorAt(n, 255, 255, 255)
	case RGBChannels:
		switch n {
		case 0:
			s.SetAllColor(255, 0, 0)
		case 1:
			s.SetAllColor(0, 255, 0)
		case 2:
			s.SetAllColor(0, 0, 255)
		default:
			return false
		}
	default:
		return false
	}
	return true
}
