package led

import (
	"fmt"
	"image"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"
)

// Console prints frames as a row of colored cells on the terminal.
type Console struct {
	mu       sync.Mutex
	drawer   display.Drawer
	count    int
	throttle time.Duration
	lastEmit time.Time
	img      *image.NRGBA
}

// NewConsole renders count pixels at most once per throttle.
func NewConsole(count int, throttle time.Duration) (*Console, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	return &Console{
		drawer:   screen.New(count),
		count:    count,
		throttle: throttle,
		img:      image.NewNRGBA(image.Rect(0, 0, count, 1)),
	}, nil
}

func (c *Console) Write(rgb []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(rgb) != c.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), c.count)
	}
	now := time.Now()
	if c.throttle > 0 && c.lastEmit.Add(c.throttle).After(now) {
		return nil
	}
	c.lastEmit = now

	for x := 0; x < c.count; x++ {
		off := c.img.PixOffset(x, 0)
		c.img.Pix[off+0] = rgb[x*3+0]
		c.img.Pix[off+1] = rgb[x*3+1]
		c.img.Pix[off+2] = rgb[x*3+2]
		c.img.Pix[off+3] = 255
	}
	if err := c.drawer.Draw(c.drawer.Bounds(), c.img, image.Point{}); err != nil {
		return fmt.Errorf("console draw: %w", err)
	}
	fmt.Printf("\n")
	return nil
}

func (c *Console) Close() error {
	return c.drawer.Halt()
}
