package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-suitstrip/internal/config"
	"github.com/coreman2200/funtimes-suitstrip/internal/led"
	"github.com/coreman2200/funtimes-suitstrip/internal/render"
	"github.com/coreman2200/funtimes-suitstrip/model"
)

func newSimCmd(o *options) *cobra.Command {
	var (
		frames int
		wave   bool
		self   string
	)
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Render a fixed number of frames without hardware",
		Long: `Renders frames as fast as possible on a simulated clock that advances one frame
period per frame. Use --driver console to watch the segments on the terminal.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			if cfg.Driver == "spi" {
				return fmt.Errorf("sim does not drive hardware; use --driver console or sim")
			}
			var cmds []render.Command
			if wave {
				cmds = append(cmds, render.Command{Kind: render.CmdWave})
			}
			if self != "" {
				cmds = append(cmds, render.Command{Kind: render.CmdSelfTest, Name: self})
			}
			_, err = simulate(cfg, frames, cmds)
			return err
		},
	}
	cmd.Flags().IntVarP(&frames, "frames", "n", 300, "number of frames to render")
	cmd.Flags().BoolVar(&wave, "wave", false, "start a pulse wave on every segment")
	cmd.Flags().StringVar(&self, "self-test", "", "run a self test: index_sweep | rgb_channels")
	addOutputFlags(cmd, o)
	return cmd
}

// simulate renders frames on a manual clock and returns the outputs, already
// closed, for inspection.
func simulate(cfg *config.Config, frames int, cmds []render.Command) ([]render.Output, error) {
	var now uint64
	clock := model.ClockFunc(func() uint64 { return now })
	period := uint64(1000 / cfg.FPS)

	outs := buildOutputs(cfg, clock, openerFor(cfg))
	defer closeOutputs(outs)

	eng, err := render.NewEngine(clock, cfg.FPS, outs...)
	if err != nil {
		return nil, err
	}
	eng.SetWaveDefaults(waveDefaults(cfg))
	submitAll(eng, startupCommands(cfg))
	submitAll(eng, cmds)

	for i := 0; i < frames; i++ {
		if err := eng.RenderOnce(); err != nil {
			log.Debug().Err(err).Uint64("frame", eng.FrameID()).Msg("render")
		}
		now += period
	}

	for _, o := range outs {
		ev := log.Info().Str("segment", o.Name).Int("leds", o.Segment.LEDCount())
		if sim, ok := o.Driver.(*led.Sim); ok {
			r, g, b := sim.Average()
			ev = ev.Int("frames", sim.Frames()).Float64("avg_r", r).Float64("avg_g", g).Float64("avg_b", b)
		}
		ev.Msg("simulation done")
	}
	return outs, nil
}
