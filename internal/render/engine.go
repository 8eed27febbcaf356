package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-suitstrip/internal/diagnostics"
	"github.com/coreman2200/funtimes-suitstrip/internal/effect"
	"github.com/coreman2200/funtimes-suitstrip/internal/led"
	"github.com/coreman2200/funtimes-suitstrip/internal/metrics"
	"github.com/coreman2200/funtimes-suitstrip/model"
)

var (
	ErrQueueFull      = errors.New("command queue full")
	ErrUnknownSegment = errors.New("unknown segment")
	ErrUnknownCommand = errors.New("unknown command")
)

const queueSize = 256

// Output binds a segment to the driver its frames are written to.
type Output struct {
	Name    string
	Segment *model.Segment
	Driver  led.Driver
}

type output struct {
	Output
	frame   []byte
	effects map[string]effect.Effect
	failing bool
}

// SegmentFrame is one segment's bytes within a Frame.
type SegmentFrame struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
	RGB  []byte `json:"rgb"`
}

type Frame struct {
	ID       uint64         `json:"frame_id"`
	Time     uint64         `json:"t"`
	Segments []SegmentFrame `json:"segments"`
}

// Info is the static layout of one output.
type Info struct {
	Name    string `json:"name"`
	ID      int    `json:"id"`
	Band    string `json:"band"`
	Count   int    `json:"count"`
	Heights []int  `json:"heights"`
}

// Engine owns the segments and drives them once per frame. Segments are only
// touched from the goroutine calling RenderOnce or Run; other goroutines go
// through Submit.
type Engine struct {
	clock  model.Clock
	fps    int
	outs   []*output
	byName map[string]*output
	cmds   chan Command

	wave WaveParams

	frameID atomic.Uint64

	mu       sync.RWMutex
	frameObs []func(Frame)
	diagObs  []func(diagnostics.Diagnostic)
}

func NewEngine(clock model.Clock, fps int, outs ...Output) (*Engine, error) {
	if len(outs) == 0 {
		return nil, errors.New("no outputs")
	}
	if clock == nil {
		clock = model.NewMonotonicClock()
	}
	if fps <= 0 {
		fps = 60
	}
	e := &Engine{
		clock:  clock,
		fps:    fps,
		byName: make(map[string]*output, len(outs)),
		cmds:   make(chan Command, queueSize),
		wave: WaveParams{
			Color: model.RGB{R: 255, G: 255, B: 255},
			Speed: effect.DefaultWaveSpeed,
			Tail:  effect.DefaultWaveTail,
		},
	}
	for _, o := range outs {
		if o.Segment == nil {
			return nil, fmt.Errorf("output %q has no segment", o.Name)
		}
		if _, dup := e.byName[o.Name]; dup {
			return nil, fmt.Errorf("duplicate output %q", o.Name)
		}
		oo := &output{Output: o, effects: map[string]effect.Effect{}}
		e.outs = append(e.outs, oo)
		e.byName[o.Name] = oo
	}
	return e, nil
}

func (e *Engine) FPS() int           { return e.fps }
func (e *Engine) FrameID() uint64    { return e.frameID.Load() }
func (e *Engine) Clock() model.Clock { return e.clock }

// SetWaveDefaults must be called before Run.
func (e *Engine) SetWaveDefaults(p WaveParams) {
	if p.Speed <= 0 {
		p.Speed = effect.DefaultWaveSpeed
	}
	e.wave = p
}

// Outputs lists the static layout of every segment.
func (e *Engine) Outputs() []Info {
	infos := make([]Info, 0, len(e.outs))
	for _, o := range e.outs {
		infos = append(infos, Info{
			Name:    o.Name,
			ID:      o.Segment.ID(),
			Band:    o.Segment.Band().String(),
			Count:   o.Segment.LEDCount(),
			Heights: o.Segment.Heights(),
		})
	}
	return infos
}

func (e *Engine) OnFrame(f func(Frame)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frameObs = append(e.frameObs, f)
}

func (e *Engine) OnDiagnostic(f func(diagnostics.Diagnostic)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.diagObs = append(e.diagObs, f)
}

// Submit queues c for the next frame. It never blocks.
func (e *Engine) Submit(c Command) error {
	select {
	case e.cmds <- c:
		return nil
	default:
		metrics.CommandDropped()
		e.diag(diagnostics.Diagnostic{
			Severity: diagnostics.Warn,
			Code:     diagnostics.CodeQueueFull,
			Segment:  c.Segment,
			Summary:  "command dropped",
			Detail:   c.String(),
		})
		return ErrQueueFull
	}
}

// RenderOnce applies queued commands, steps effects, updates every segment
// and writes the frames. Driver failures do not stop the frame; they are
// returned joined.
func (e *Engine) RenderOnce() error {
	start := time.Now()
	e.drain()

	now := e.clock.Millis()
	var errs []error
	for _, o := range e.outs {
		e.stepEffects(now, o)
		o.Segment.Update()
		o.frame = led.FillFrame(o.frame, o.Segment)

		if o.Driver != nil {
			if err := o.Driver.Write(o.frame); err != nil {
				e.driverFailed(o, err)
				errs = append(errs, fmt.Errorf("%s: %w", o.Name, err))
			} else if o.failing {
				o.failing = false
				log.Info().Str("segment", o.Name).Msg("driver recovered")
			}
		}
		metrics.SegmentState(o.Name, o.Segment.PulseActive(), o.Segment.Brightness())
	}

	id := e.frameID.Add(1)
	metrics.ObserveFrame(time.Since(start).Seconds())
	e.publish(id, now)
	return errors.Join(errs...)
}

// Run renders at the engine's fps until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(e.fps))
	defer ticker.Stop()

	log.Info().Int("fps", e.fps).Int("segments", len(e.outs)).Msg("render loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Uint64("frames", e.FrameID()).Msg("render loop stopped")
			return ctx.Err()
		case <-ticker.C:
			_ = e.RenderOnce() // failures are logged per output
		}
	}
}

func (e *Engine) drain() {
	for {
		select {
		case c := <-e.cmds:
			if err := e.Apply(c); err != nil {
				log.Debug().Err(err).Str("command", c.String()).Msg("command rejected")
			}
		default:
			return
		}
	}
}

func (e *Engine) stepEffects(now uint64, o *output) {
	for _, slot := range slotOrder {
		fx, ok := o.effects[slot]
		if !ok {
			continue
		}
		if fx.Step(now, o.Segment) {
			delete(o.effects, slot)
			e.diag(diagnostics.Diagnostic{
				Severity: diagnostics.Info,
				Code:     diagnostics.CodeEffectDone,
				Segment:  o.Name,
				Summary:  slot + " finished",
			})
		}
	}
}

func (e *Engine) driverFailed(o *output, err error) {
	metrics.DriverError(o.Name)
	if !o.failing {
		o.failing = true
		log.Warn().Err(err).Str("segment", o.Name).Msg("driver write failed")
		e.diag(diagnostics.Diagnostic{
			Severity: diagnostics.Err,
			Code:     diagnostics.CodeDriverWrite,
			Segment:  o.Name,
			Summary:  "driver write failed",
			Detail:   err.Error(),
		})
		return
	}
	log.Debug().Err(err).Str("segment", o.Name).Msg("driver write failed")
}

func (e *Engine) publish(id, now uint64) {
	e.mu.RLock()
	obs := e.frameObs
	e.mu.RUnlock()
	if len(obs) == 0 {
		return
	}

	f := Frame{ID: id, Time: now, Segments: make([]SegmentFrame, 0, len(e.outs))}
	for _, o := range e.outs {
		f.Segments = append(f.Segments, SegmentFrame{
			Name: o.Name,
			ID:   o.Segment.ID(),
			RGB:  append([]byte(nil), o.frame...),
		})
	}
	for _, fn := range obs {
		fn(f)
	}
}

func (e *Engine) diag(d diagnostics.Diagnostic) {
	e.mu.RLock()
	obs := e.diagObs
	e.mu.RUnlock()
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	for _, fn := range obs {
		fn(d)
	}
}
