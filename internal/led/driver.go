package led

import "github.com/coreman2200/funtimes-suitstrip/model"

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame to hardware. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// FillFrame reads the brightness-scaled output of every LED on s into dst,
// growing it if needed, and returns the 3*LEDCount byte frame.
func FillFrame(dst []byte, s *model.Segment) []byte {
	n := s.LEDCount() * 3
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i := 0; i < s.LEDCount(); i++ {
		dst[i*3+0] = clamp255(s.Red(i))
		dst[i*3+1] = clamp255(s.Green(i))
		dst[i*3+2] = clamp255(s.Blue(i))
	}
	return dst
}

func clamp255(v int) byte {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v)
}
