package effect

import "math"

// Keyframe is a value at time T (seconds). Ease applies to the span that
// starts at this keyframe.
type Keyframe struct {
	T    float64 `yaml:"t" json:"t"`
	V    float64 `yaml:"v" json:"v"`
	Ease string  `yaml:"ease,omitempty" json:"ease,omitempty"` // "linear","smooth","cubic"
}

// Envelope is a list of keyframes sorted by T.
type Envelope struct {
	Keys []Keyframe `yaml:"keys" json:"keys"`
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// smootherstep, 6x^5 - 15x^4 + 10x^3
func smootherstep(x float64) float64 {
	return x * x * x * (x*(x*6-15) + 10)
}

func easeApply(kind string, x float64) float64 {
	switch kind {
	case "smooth":
		return x * x * (3 - 2*x)
	case "cubic":
		return smootherstep(x)
	default:
		return x
	}
}

// Eval returns the envelope value at t. No keys yields 0, a single key its
// value; outside the keyed range the nearest end value holds.
func (e Envelope) Eval(t float64) float64 {
	n := len(e.Keys)
	if n == 0 {
		return 0
	}
	if t <= e.Keys[0].T {
		return e.Keys[0].V
	}
	if t >= e.Keys[n-1].T {
		return e.Keys[n-1].V
	}
	for i := 0; i < n-1; i++ {
		a, b := e.Keys[i], e.Keys[i+1]
		if t < a.T || t > b.T {
			continue
		}
		den := b.T - a.T
		if den <= 0 {
			return b.V
		}
		u := easeApply(a.Ease, clamp01((t-a.T)/den))
		return a.V + (b.V-a.V)*u
	}
	return e.Keys[n-1].V
}

// Duration is the time of the last key.
func (e Envelope) Duration() float64 {
	if len(e.Keys) == 0 {
		return 0
	}
	return e.Keys[len(e.Keys)-1].T
}
