package model

import "errors"

// ErrIndexOutOfRange is returned by mutators given an LED index outside
// [0, LEDCount). The segment is left untouched.
var ErrIndexOutOfRange = errors.New("led index out of range")

const (
	// SmoothingFactor is the per-tick lerp of output toward current.
	SmoothingFactor = 0.2
	// FadeDownFactor is the per-tick decay of current toward black during a
	// live pulse event.
	FadeDownFactor = 0.05
)

// Segment owns the animation state of one physical LED segment. It is not
// safe for concurrent use: a single goroutine must drive every call.
type Segment struct {
	id       int
	band     Band
	ledCount int
	heights  [MaxLEDs]int

	current [MaxLEDs]RGB
	output  [MaxLEDs]RGB

	lastTriggerTimes [MaxLEDs]uint64

	brightness float64

	pulseActive    bool
	pulseStartTime uint64

	liveMode bool

	clock Clock
}

type Option func(*Segment)

// WithClock sets the time source used to stamp triggers and pulse starts.
func WithClock(c Clock) Option {
	return func(s *Segment) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLiveMode starts the segment in the live (decay) regime.
func WithLiveMode(live bool) Option {
	return func(s *Segment) {
		s.liveMode = live
	}
}

// NewSegment builds the controller for segment id. Ids outside the known
// bands use the head layout.
func NewSegment(id int, opts ...Option) *Segment {
	band := BandFor(id)
	s := &Segment{
		id:         id,
		band:       band,
		brightness: 1.0,
		clock:      NewMonotonicClock(),
	}
	s.ledCount = copy(s.heights[:], band.Heights())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Segment) ID() int       { return s.id }
func (s *Segment) Band() Band    { return s.band }
func (s *Segment) LEDCount() int { return s.ledCount }

// Heights returns a copy of the height table for the segment's LEDs.
func (s *Segment) Heights() []int {
	h := make([]int, s.ledCount)
	copy(h, s.heights[:s.ledCount])
	return h
}

func (s *Segment) HeightAt(i int) (int, bool) {
	if !s.inRange(i) {
		return 0, false
	}
	return s.heights[i], true
}

func (s *Segment) inRange(i int) bool {
	return i >= 0 && i < s.ledCount
}

// TriggerFlashAt sets the target color of LED i and stamps its trigger time.
func (s *Segment) TriggerFlashAt(i int, r, g, b float64) error {
	if !s.inRange(i) {
		return ErrIndexOutOfRange
	}
	s.current[i] = RGB{R: r, G: g, B: b}
	s.lastTriggerTimes[i] = s.clock.Millis()
	return nil
}

func (s *Segment) SetColorAt(i int, r, g, b float64) error {
	if !s.inRange(i) {
		return ErrIndexOutOfRange
	}
	s.current[i] = RGB{R: r, G: g, B: b}
	return nil
}

// SetAllColor fills every LED's target. Used by diagnostics.
func (s *Segment) SetAllColor(r, g, b float64) {
	c := RGB{R: r, G: g, B: b}
	for i := 0; i < s.ledCount; i++ {
		s.current[i] = c
	}
}

// StartPulseEvent begins a pulse from black: both color buffers are zeroed.
func (s *Segment) StartPulseEvent() {
	s.pulseStartTime = s.clock.Millis()
	s.pulseActive = true
	for i := 0; i < s.ledCount; i++ {
		s.current[i] = Black
		s.output[i] = Black
	}
}

// EndPulseEvent leaves the buffers as they are.
func (s *Segment) EndPulseEvent() {
	s.pulseActive = false
}

func (s *Segment) PulseActive() bool      { return s.pulseActive }
func (s *Segment) PulseStartTime() uint64 { return s.pulseStartTime }

func (s *Segment) SetBrightness(b float64) {
	s.brightness = clampBrightness(b)
}

func (s *Segment) Brightness() float64 { return s.brightness }

func (s *Segment) SetLiveMode(live bool) { s.liveMode = live }
func (s *Segment) LiveMode() bool        { return s.liveMode }

// LastTriggerTime reports when LED i was last flashed, in clock millis.
func (s *Segment) LastTriggerTime(i int) (uint64, bool) {
	if !s.inRange(i) {
		return 0, false
	}
	return s.lastTriggerTimes[i], true
}

// Current is the target color of LED i.
func (s *Segment) Current(i int) (RGB, bool) {
	if !s.inRange(i) {
		return Black, false
	}
	return s.current[i], true
}
