package led

import (
	"fmt"
	"sync"
)

// Sim keeps the last frame in memory. Useful for headless runs and tests.
type Sim struct {
	mu     sync.Mutex
	count  int
	frames int
	last   []byte
	closed bool
}

func NewSim(count int) *Sim {
	return &Sim{count: count, last: make([]byte, count*3)}
}

func (s *Sim) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sim closed")
	}
	if len(rgb) != s.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), s.count)
	}
	copy(s.last, rgb)
	s.frames++
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Frames is the number of frames written so far.
func (s *Sim) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Last returns a copy of the most recent frame.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.last))
	copy(out, s.last)
	return out
}

// Average computes the mean of each channel over the last frame.
func (s *Sim) Average() (r, g, b float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return 0, 0, 0
	}
	for i := 0; i < s.count; i++ {
		r += float64(s.last[i*3+0])
		g += float64(s.last[i*3+1])
		b += float64(s.last[i*3+2])
	}
	n := float64(s.count)
	return r / n, g / n, b / n
}
