package effect

import "github.com/coreman2200/funtimes-suitstrip/model"

const (
	// DefaultWaveSpeed is in height units per second; the suit is ~1100 tall.
	DefaultWaveSpeed = 600.0
	// DefaultWaveTail keeps the pulse running after the front leaves the
	// segment so the last flashes can fade out.
	DefaultWaveTail uint64 = 2000
)

// Wave sweeps a flash front up the body. Every LED the front crosses is
// triggered, and since the segment runs a live pulse meanwhile, each flash
// decays behind the front.
//
// Segments run their own Wave independently; given the same parameters and
// clock, fronts line up across the suit because they share height units.
type Wave struct {
	Color model.RGB
	Speed float64
	From  float64
	Tail  uint64

	started  bool
	start    uint64
	prevLive bool
	heights  []int
	top      int
	prev     float64
	endAt    uint64
	done     bool
}

func NewWave(c model.RGB, speed float64) *Wave {
	if speed <= 0 {
		speed = DefaultWaveSpeed
	}
	return &Wave{Color: c, Speed: speed, Tail: DefaultWaveTail}
}

// Front is the height reached at clock time now.
func (w *Wave) Front(now uint64) float64 {
	if !w.started || now < w.start {
		return w.From
	}
	return w.From + w.Speed*float64(now-w.start)/1000
}

func (w *Wave) begin(now uint64, s *model.Segment) {
	w.started = true
	w.start = now
	w.prevLive = s.LiveMode()
	w.heights = s.Heights()
	w.top = 0
	for _, h := range w.heights {
		if h > w.top {
			w.top = h
		}
	}
	w.prev = w.From - 1

	s.SetLiveMode(true)
	s.StartPulseEvent()
}

func (w *Wave) Step(now uint64, s *model.Segment) bool {
	if !w.started {
		w.begin(now, s)
	}

	front := w.Front(now)
	for i, h := range w.heights {
		fh := float64(h)
		if fh > w.prev && fh <= front {
			_ = s.TriggerFlashAt(i, w.Color.R, w.Color.G, w.Color.B)
		}
	}
	w.prev = front

	if front <= float64(w.top) {
		return false
	}
	if w.endAt == 0 {
		w.endAt = now + w.Tail
	}
	if now < w.endAt {
		return false
	}
	w.Stop(s)
	return true
}

// Stop ends the pulse and restores the live mode seen when the wave began.
func (w *Wave) Stop(s *model.Segment) {
	if !w.started || w.done {
		return
	}
	w.done = true
	s.EndPulseEvent()
	s.SetLiveMode(w.prevLive)
}
