package led

import "sync"

// DefaultChanMA is the draw of one WS2812 channel at full scale.
const DefaultChanMA = 20.0

// Limiter keeps the estimated current of a frame under a budget by scaling
// the whole frame down. A zero budget disables it.
type Limiter struct {
	BudgetMA float64
	ChanMA   float64
}

// Estimate is the current in mA drawn by rgb.
func (l Limiter) Estimate(rgb []byte) float64 {
	chanMA := l.ChanMA
	if chanMA <= 0 {
		chanMA = DefaultChanMA
	}
	var sum int
	for _, v := range rgb {
		sum += int(v)
	}
	return float64(sum) / 255 * chanMA
}

// Scale is the factor applied to rgb, 1 when it is within budget.
func (l Limiter) Scale(rgb []byte) float64 {
	if l.BudgetMA <= 0 {
		return 1
	}
	total := l.Estimate(rgb)
	if total <= l.BudgetMA {
		return 1
	}
	return l.BudgetMA / total
}

// Apply writes the limited frame into dst and returns it. Values are
// truncated so the result never exceeds the budget.
func (l Limiter) Apply(dst, rgb []byte) []byte {
	dst = append(dst[:0], rgb...)
	s := l.Scale(rgb)
	if s >= 1 {
		return dst
	}
	for i, v := range dst {
		dst[i] = byte(float64(v) * s)
	}
	return dst
}

// Limited wraps a driver with a current limiter. The frame passed to Write
// is not modified.
type Limited struct {
	Driver
	Limiter Limiter

	mu  sync.Mutex
	buf []byte
}

func NewLimited(d Driver, l Limiter) *Limited {
	return &Limited{Driver: d, Limiter: l}
}

func (d *Limited) Write(rgb []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf = d.Limiter.Apply(d.buf, rgb)
	return d.Driver.Write(d.buf)
}
