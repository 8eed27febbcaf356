package model

// Update advances the segment by one frame.
//
// In the default smoothing regime output chases current. In live mode with an
// active pulse, current itself decays toward black and output mirrors it, so a
// trigger during the pulse flashes and then fades. Live mode without a pulse
// leaves the buffers alone.
func (s *Segment) Update() {
	switch {
	case !s.liveMode:
		for i := 0; i < s.ledCount; i++ {
			s.output[i] = s.output[i].Lerp(s.current[i], SmoothingFactor)
		}
	case s.pulseActive:
		for i := 0; i < s.ledCount; i++ {
			s.current[i] = s.current[i].Lerp(Black, FadeDownFactor)
			s.output[i] = s.current[i]
		}
	}

	s.brightness = clampBrightness(s.brightness)
}
