package model

import "math"

// InvalidChannel is returned by the channel readers for an index outside the
// segment.
const InvalidChannel = -1

func (s *Segment) Red(i int) int {
	if !s.inRange(i) {
		return InvalidChannel
	}
	return s.scaled(s.output[i].R)
}

func (s *Segment) Green(i int) int {
	if !s.inRange(i) {
		return InvalidChannel
	}
	return s.scaled(s.output[i].G)
}

func (s *Segment) Blue(i int) int {
	if !s.inRange(i) {
		return InvalidChannel
	}
	return s.scaled(s.output[i].B)
}

func (s *Segment) scaled(v float64) int {
	return int(math.Round(v * s.brightness))
}

// Output is the rendered color of LED i before brightness is applied.
func (s *Segment) Output(i int) (RGB, bool) {
	if !s.inRange(i) {
		return Black, false
	}
	return s.output[i], true
}

// Pixels returns the brightness-scaled output of every LED.
func (s *Segment) Pixels() []RGB {
	px := make([]RGB, s.ledCount)
	for i := range px {
		px[i] = s.output[i].Scale(s.brightness)
	}
	return px
}
