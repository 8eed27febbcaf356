package effect

import (
	"math"

	"github.com/coreman2200/funtimes-suitstrip/model"
)

// Breathe loops an envelope over brightness. The envelope is scaled by Base,
// the brightness the segment would have without breathing. It never finishes
// on its own.
type Breathe struct {
	Env  Envelope
	Base float64

	start   uint64
	started bool
}

// DefaultBreath rises from lo to hi and back over period seconds.
func DefaultBreath(lo, hi, period float64) Envelope {
	return Envelope{Keys: []Keyframe{
		{T: 0, V: lo, Ease: "smooth"},
		{T: period / 2, V: hi, Ease: "smooth"},
		{T: period, V: lo},
	}}
}

func NewBreathe(env Envelope) *Breathe {
	return &Breathe{Env: env, Base: 1}
}

func (b *Breathe) Step(now uint64, s *model.Segment) bool {
	if !b.started {
		b.started = true
		b.start = now
	}
	t := float64(now-b.start) / 1000
	if d := b.Env.Duration(); d > 0 {
		t = math.Mod(t, d)
	}
	s.SetBrightness(b.Base * b.Env.Eval(t))
	return false
}

// Stop leaves the segment at Base.
func (b *Breathe) Stop(s *model.Segment) {
	s.SetBrightness(b.Base)
}
