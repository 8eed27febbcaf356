package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-suitstrip/internal/config"
	"github.com/coreman2200/funtimes-suitstrip/internal/led"
	"github.com/coreman2200/funtimes-suitstrip/internal/render"
	"github.com/coreman2200/funtimes-suitstrip/model"
)

func TestBuildOutputsUsesBands(t *testing.T) {
	cfg := config.Default()
	outs := buildOutputs(cfg, model.ClockFunc(func() uint64 { return 0 }), openerFor(cfg))
	defer closeOutputs(outs)

	require.Len(t, outs, 5)
	counts := map[string]int{}
	for _, o := range outs {
		counts[o.Name] = o.Segment.LEDCount()
		assert.IsType(t, &led.Sim{}, o.Driver)
		assert.Equal(t, cfg.Brightness, o.Segment.Brightness())
	}
	assert.Equal(t, map[string]int{
		"top-left": 87, "top-right": 87, "bottom-left": 60, "bottom-right": 60, "helmet": 48,
	}, counts)
}

func TestBuildOutputsFallsBackToSim(t *testing.T) {
	cfg := config.Default()
	cfg.Segments = cfg.Segments[:1]
	failing := func(config.Segment, int) (led.Driver, error) { return nil, errors.New("no spi") }

	outs := buildOutputs(cfg, model.NewMonotonicClock(), failing)
	require.Len(t, outs, 1)
	assert.IsType(t, &led.Sim{}, outs[0].Driver)
}

func TestBuildOutputsLimitsPower(t *testing.T) {
	cfg := config.Default()
	cfg.Power.BudgetMA = 500
	outs := buildOutputs(cfg, model.NewMonotonicClock(), openerFor(cfg))

	lim, ok := outs[0].Driver.(*led.Limited)
	require.True(t, ok)
	assert.Equal(t, 500.0, lim.Limiter.BudgetMA)
	assert.IsType(t, &led.Sim{}, lim.Driver)
}

func TestReloadCommands(t *testing.T) {
	prev := config.Default()
	next := config.Default()
	next.Brightness = 0.25
	next.Segments[4].Live = true
	next.Segments[0].Color = config.Color{B: 255}
	next.Segments = append(next.Segments, config.Segment{Name: "cape", ID: 9})

	cmds := reloadCommands(prev, next)
	require.Len(t, cmds, 3)
	assert.Equal(t, render.Command{Kind: render.CmdBrightness, Value: 0.25}, cmds[0])
	assert.Equal(t, render.CmdSetAll, cmds[1].Kind)
	assert.Equal(t, "top-left", cmds[1].Segment)
	assert.Equal(t, render.Command{Kind: render.CmdLive, Segment: "helmet", On: true}, cmds[2])

	assert.Empty(t, reloadCommands(next, next))
}

func TestReloadCommandsBreathe(t *testing.T) {
	prev := config.Default()
	next := config.Default()
	next.Breathe.Enabled = true

	cmds := reloadCommands(prev, next)
	require.Len(t, cmds, 1)
	assert.Equal(t, render.CmdBreathe, cmds[0].Kind)
	assert.NotEmpty(t, cmds[0].Envelope.Keys)

	cmds = reloadCommands(next, prev)
	require.Len(t, cmds, 2)
	assert.Equal(t, render.CmdStopEffect, cmds[0].Kind)
	assert.Equal(t, render.SlotBreathe, cmds[0].Name)
	assert.Equal(t, render.CmdBrightness, cmds[1].Kind)
}

func TestSimulateWave(t *testing.T) {
	cfg := config.Default()
	cfg.Brightness = 1

	// 130 frames of 16ms carry the front past the top of the helmet while the
	// tail keeps the pulse running
	outs, err := simulate(cfg, 130, []render.Command{{Kind: render.CmdWave}})
	require.NoError(t, err)
	for _, o := range outs {
		sim := o.Driver.(*led.Sim)
		assert.Equal(t, 130, sim.Frames(), o.Name)
		r, _, _ := sim.Average()
		assert.Greater(t, r, 0.0, "%s should be lit by the wave", o.Name)
		assert.True(t, o.Segment.PulseActive(), o.Name)
	}
}

func TestSimCommandLoadsConfigAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suit.yaml")
	cfg := config.Default()
	cfg.Segments = []config.Segment{{Name: "chest", ID: 0}}
	require.NoError(t, config.Save(path, cfg))

	root := newRootCmd()
	root.SetArgs([]string{"sim", "--config", path, "--frames", "5", "--fps", "50", "--log-level", "warn"})
	require.NoError(t, root.Execute())
}

func TestSimCommandMissingConfigUsesDefaults(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"sim", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "-n", "2"})
	require.NoError(t, root.Execute())
}

func TestSimCommandRejectsBadFlags(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"sim", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "--brightness", "3"})
	assert.ErrorIs(t, root.Execute(), config.ErrInvalid)

	root = newRootCmd()
	root.SetArgs([]string{"sim", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "--driver", "spi"})
	assert.Error(t, root.Execute())
}

func TestLoadConfigBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fps: [1"), 0644))

	root := newRootCmd()
	root.SetArgs([]string{"sim", "--config", path})
	assert.Error(t, root.Execute())
}
