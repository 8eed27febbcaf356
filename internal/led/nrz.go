package led

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// RefreshRate is the WS2812 bit rate.
const RefreshRate physic.Frequency = 800 * physic.KiloHertz

// DefaultSPIFreq over-samples the NRZ stream three times plus headroom.
const DefaultSPIFreq = RefreshRate*3 + 100*physic.KiloHertz

// NRZ drives a WS2812 strip through an SPI port.
type NRZ struct {
	mu    sync.Mutex
	port  spi.PortCloser
	dev   *nrzled.Dev
	count int
}

// OpenNRZ initializes the host drivers and opens the named SPI port. An empty
// name selects the first available port.
func OpenNRZ(name string, count int, freq physic.Frequency) (*NRZ, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", name, err)
	}
	d, err := NewNRZ(p, count, freq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return d, nil
}

// NewNRZ wraps an already opened port. The NRZ owns p afterwards.
func NewNRZ(p spi.PortCloser, count int, freq physic.Frequency) (*NRZ, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if freq <= 0 {
		freq = DefaultSPIFreq
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &NRZ{port: p, dev: d, count: count}, nil
}

func (n *NRZ) String() string {
	return n.dev.String()
}

func (n *NRZ) Write(rgb []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.dev == nil {
		return fmt.Errorf("nrz closed")
	}
	if len(rgb) != n.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), n.count)
	}
	if _, err := n.dev.Write(rgb); err != nil {
		return fmt.Errorf("nrz write: %w", err)
	}
	return nil
}

// Close blanks the strip and releases the port.
func (n *NRZ) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.dev == nil {
		return nil
	}
	herr := n.dev.Halt()
	perr := n.port.Close()
	n.dev = nil
	if herr != nil {
		return fmt.Errorf("nrz halt: %w", herr)
	}
	return perr
}
