package main

import (
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-suitstrip/internal/config"
	"github.com/coreman2200/funtimes-suitstrip/internal/effect"
	"github.com/coreman2200/funtimes-suitstrip/internal/led"
	"github.com/coreman2200/funtimes-suitstrip/internal/render"
	"github.com/coreman2200/funtimes-suitstrip/model"
)

const consoleThrottle = 100 * time.Millisecond

// opener builds the driver for one configured segment.
type opener func(seg config.Segment, count int) (led.Driver, error)

func openerFor(cfg *config.Config) opener {
	switch cfg.Driver {
	case "spi":
		freq := physic.Frequency(cfg.SPI.FreqKHz) * physic.KiloHertz
		if freq == 0 {
			freq = led.DefaultSPIFreq
		}
		return func(seg config.Segment, count int) (led.Driver, error) {
			return led.OpenNRZ(seg.Port, count, freq)
		}
	case "console":
		return func(_ config.Segment, count int) (led.Driver, error) {
			return led.NewConsole(count, consoleThrottle)
		}
	default:
		return func(_ config.Segment, count int) (led.Driver, error) {
			return led.NewSim(count), nil
		}
	}
}

// buildOutputs creates a segment per config entry and opens its driver. A
// driver that fails to open is replaced by a simulator so the rest of the
// suit keeps running.
func buildOutputs(cfg *config.Config, clock model.Clock, open opener) []render.Output {
	outs := make([]render.Output, 0, len(cfg.Segments))
	for _, sc := range cfg.Segments {
		seg := model.NewSegment(sc.ID, model.WithClock(clock), model.WithLiveMode(sc.Live))
		seg.SetBrightness(cfg.Brightness)
		if c := sc.Color.RGB(); c != model.Black {
			seg.SetAllColor(c.R, c.G, c.B)
		}

		drv, err := open(sc, seg.LEDCount())
		if err != nil {
			log.Warn().Err(err).
				Str("segment", sc.Name).
				Str("driver", cfg.Driver).
				Str("port", sc.Port).
				Msg("driver init failed; falling back to SIM")
			drv = led.NewSim(seg.LEDCount())
		}
		if cfg.Power.BudgetMA > 0 {
			drv = led.NewLimited(drv, led.Limiter{BudgetMA: cfg.Power.BudgetMA, ChanMA: cfg.Power.ChanMA})
		}
		log.Debug().Str("segment", sc.Name).Int("id", sc.ID).Stringer("band", seg.Band()).
			Int("leds", seg.LEDCount()).Msg("segment ready")
		outs = append(outs, render.Output{Name: sc.Name, Segment: seg, Driver: drv})
	}
	return outs
}

func closeOutputs(outs []render.Output) {
	for _, o := range outs {
		if err := o.Driver.Close(); err != nil {
			log.Warn().Err(err).Str("segment", o.Name).Msg("close driver")
		}
	}
}

func waveDefaults(cfg *config.Config) render.WaveParams {
	return render.WaveParams{
		Color: cfg.Wave.Color.RGB(),
		Speed: cfg.Wave.Speed,
		Tail:  uint64(cfg.Wave.TailMS),
	}
}

// startupCommands are submitted once before the first frame.
func startupCommands(cfg *config.Config) []render.Command {
	var cmds []render.Command
	if b := cfg.Breathe; b.Enabled {
		cmds = append(cmds, render.Command{
			Kind:     render.CmdBreathe,
			Envelope: effect.DefaultBreath(b.Low, b.High, b.PeriodS),
		})
	}
	return cmds
}

// reloadCommands turns the differences between two configs into commands.
// Only settings that can change without reopening drivers are applied.
func reloadCommands(prev, next *config.Config) []render.Command {
	var cmds []render.Command
	if next.Brightness != prev.Brightness {
		cmds = append(cmds, render.Command{Kind: render.CmdBrightness, Value: next.Brightness})
	}

	known := map[string]config.Segment{}
	for _, s := range prev.Segments {
		known[s.Name] = s
	}
	for _, s := range next.Segments {
		old, ok := known[s.Name]
		if !ok {
			log.Warn().Str("segment", s.Name).Msg("new segments need a restart")
			continue
		}
		if s.Live != old.Live {
			cmds = append(cmds, render.Command{Kind: render.CmdLive, Segment: s.Name, On: s.Live})
		}
		if s.Color != old.Color {
			cmds = append(cmds, render.Command{Kind: render.CmdSetAll, Segment: s.Name, Color: s.Color.RGB()})
		}
	}

	if next.Breathe != prev.Breathe {
		if next.Breathe.Enabled {
			cmds = append(cmds, startupCommands(next)...)
		} else {
			cmds = append(cmds,
				render.Command{Kind: render.CmdStopEffect, Name: render.SlotBreathe},
				render.Command{Kind: render.CmdBrightness, Value: next.Brightness})
		}
	}
	return cmds
}

func submitAll(eng *render.Engine, cmds []render.Command) {
	for _, c := range cmds {
		if err := eng.Submit(c); err != nil {
			log.Warn().Err(err).Stringer("cmd", c).Msg("submit")
		}
	}
}

func previewEvery(fps int) int {
	// about 20 preview frames per second
	return max(1, fps/20)
}
