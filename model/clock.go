package model

import "time"

// Clock is a monotonic millisecond time source.
type Clock interface {
	Millis() uint64
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() uint64

func (f ClockFunc) Millis() uint64 { return f() }

// MonotonicClock counts milliseconds since it was created. time.Since reads
// the monotonic reading, so wall clock jumps do not affect it.
type MonotonicClock struct {
	start time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

func (c *MonotonicClock) Millis() uint64 {
	return uint64(time.Since(c.start).Milliseconds())
}
