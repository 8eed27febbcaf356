package render

import (
	"errors"
	"fmt"

	"github.com/coreman2200/funtimes-suitstrip/internal/diagnostics"
	"github.com/coreman2200/funtimes-suitstrip/internal/effect"
	"github.com/coreman2200/funtimes-suitstrip/internal/metrics"
	"github.com/coreman2200/funtimes-suitstrip/model"
)

// Apply executes c immediately. Only the render goroutine may call it.
func (e *Engine) Apply(c Command) error {
	targets, err := e.targets(c.Segment)
	if err != nil {
		e.diag(diagnostics.Diagnostic{
			Severity: diagnostics.Warn,
			Code:     diagnostics.CodeUnknownSegment,
			Segment:  c.Segment,
			Summary:  "command for unknown segment",
			Detail:   c.String(),
		})
		return err
	}

	var errs []error
	for _, o := range targets {
		if err := e.applyTo(o, c); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		code := diagnostics.CodeBadCommand
		if errors.Is(err, model.ErrIndexOutOfRange) {
			code = diagnostics.CodeBadIndex
		}
		e.diag(diagnostics.Diagnostic{
			Severity: diagnostics.Warn,
			Code:     code,
			Segment:  c.Segment,
			Summary:  "command rejected",
			Detail:   err.Error(),
			Evidence: map[string]any{"kind": string(c.Kind), "index": c.Index},
		})
		return err
	}
	metrics.CommandApplied(string(c.Kind))
	return nil
}

func (e *Engine) targets(name string) ([]*output, error) {
	if name == "" {
		return e.outs, nil
	}
	o, ok := e.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSegment, name)
	}
	return []*output{o}, nil
}

func (e *Engine) applyTo(o *output, c Command) error {
	s := o.Segment
	switch c.Kind {
	case CmdTrigger:
		return s.TriggerFlashAt(c.Index, c.Color.R, c.Color.G, c.Color.B)
	case CmdSetColor:
		return s.SetColorAt(c.Index, c.Color.R, c.Color.G, c.Color.B)
	case CmdSetAll:
		s.SetAllColor(c.Color.R, c.Color.G, c.Color.B)
	case CmdBrightness:
		s.SetBrightness(c.Value)
		if b, ok := o.effects[SlotBreathe].(*effect.Breathe); ok {
			b.Base = s.Brightness()
		}
	case CmdPulseStart:
		s.StartPulseEvent()
	case CmdPulseEnd:
		s.EndPulseEvent()
	case CmdLive:
		s.SetLiveMode(c.On)
	case CmdWave:
		o.stopEffect(SlotSelfTest)
		o.setEffect(SlotWave, e.newWave(c))
	case CmdBreathe:
		env := c.Envelope
		if len(env.Keys) == 0 {
			env = effect.DefaultBreath(0.3, 1, 4)
		}
		o.stopEffect(SlotBreathe)
		b := effect.NewBreathe(env)
		b.Base = s.Brightness()
		o.effects[SlotBreathe] = b
	case CmdSelfTest:
		kind, err := effect.ParseKind(c.Name)
		if err != nil {
			return err
		}
		o.stopEffect(SlotWave)
		o.setEffect(SlotSelfTest, effect.NewSelfTest(kind, c.Index))
	case CmdStopEffect:
		if c.Name == "" {
			for _, slot := range slotOrder {
				o.stopEffect(slot)
			}
			return nil
		}
		o.stopEffect(c.Name)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, c.Kind)
	}
	return nil
}

func (e *Engine) newWave(c Command) *effect.Wave {
	color := c.Color
	if color == model.Black {
		color = e.wave.Color
	}
	speed := c.Value
	if speed <= 0 {
		speed = e.wave.Speed
	}
	w := effect.NewWave(color, speed)
	w.Tail = e.wave.Tail
	return w
}

// setEffect installs fx in slot, stopping whatever ran there.
func (o *output) setEffect(slot string, fx effect.Effect) {
	o.stopEffect(slot)
	o.effects[slot] = fx
}

func (o *output) stopEffect(slot string) {
	fx, ok := o.effects[slot]
	if !ok {
		return
	}
	if st, ok := fx.(effect.Stopper); ok {
		st.Stop(o.Segment)
	}
	delete(o.effects, slot)
}
