package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-suitstrip/internal/diagnostics"
	"github.com/coreman2200/funtimes-suitstrip/internal/effect"
	"github.com/coreman2200/funtimes-suitstrip/model"
)

// fakeDriver captures the last frame written.
type fakeDriver struct {
	last   []byte
	writes int
	err    error
}

func (d *fakeDriver) Write(buf []byte) error {
	d.writes++
	if d.err != nil {
		return d.err
	}
	d.last = append(d.last[:0], buf...)
	return nil
}

func (d *fakeDriver) Close() error { return nil }

type manualClock struct{ now uint64 }

func (c *manualClock) Millis() uint64 { return c.now }

func newTestEngine(t *testing.T) (*Engine, *manualClock, map[string]*fakeDriver) {
	t.Helper()
	clk := &manualClock{now: 1}
	drivers := map[string]*fakeDriver{"chest": {}, "helmet": {}}
	e, err := NewEngine(clk, 60,
		Output{Name: "chest", Segment: model.NewSegment(0, model.WithClock(clk)), Driver: drivers["chest"]},
		Output{Name: "helmet", Segment: model.NewSegment(4, model.WithClock(clk)), Driver: drivers["helmet"]},
	)
	require.NoError(t, err)
	return e, clk, drivers
}

func TestNewEngineValidates(t *testing.T) {
	_, err := NewEngine(nil, 0)
	assert.Error(t, err)

	s := model.NewSegment(0)
	_, err = NewEngine(nil, 0, Output{Name: "a", Segment: s}, Output{Name: "a", Segment: s})
	assert.Error(t, err)

	_, err = NewEngine(nil, 0, Output{Name: "a"})
	assert.Error(t, err)

	e, err := NewEngine(nil, 0, Output{Name: "a", Segment: s})
	require.NoError(t, err)
	assert.Equal(t, 60, e.FPS())
}

func TestRenderOnceWritesFrames(t *testing.T) {
	e, _, drv := newTestEngine(t)

	require.NoError(t, e.Submit(Command{Kind: CmdSetColor, Segment: "chest", Index: 2, Color: model.RGB{R: 100}}))
	for i := 0; i < 100; i++ {
		require.NoError(t, e.RenderOnce())
	}

	require.Len(t, drv["chest"].last, 87*3)
	require.Len(t, drv["helmet"].last, 48*3)
	assert.Equal(t, byte(100), drv["chest"].last[6])
	assert.Equal(t, byte(0), drv["helmet"].last[6], "commands only reach their target")
	assert.Equal(t, uint64(100), e.FrameID())
}

func TestBroadcastCommandAndBrightness(t *testing.T) {
	e, _, drv := newTestEngine(t)
	require.NoError(t, e.Submit(Command{Kind: CmdSetAll, Color: model.RGB{G: 200}}))
	require.NoError(t, e.Submit(Command{Kind: CmdBrightness, Value: 0.5}))
	for i := 0; i < 100; i++ {
		require.NoError(t, e.RenderOnce())
	}
	assert.Equal(t, byte(100), drv["chest"].last[1])
	assert.Equal(t, byte(100), drv["helmet"].last[47*3+1])
}

func TestPulseInLiveModeFades(t *testing.T) {
	e, clk, drv := newTestEngine(t)
	require.NoError(t, e.Apply(Command{Kind: CmdLive, Segment: "helmet", On: true}))
	require.NoError(t, e.Apply(Command{Kind: CmdPulseStart, Segment: "helmet"}))
	clk.now = 500
	require.NoError(t, e.Apply(Command{Kind: CmdTrigger, Segment: "helmet", Index: 0, Color: model.RGB{R: 100}}))

	require.NoError(t, e.RenderOnce())
	assert.Equal(t, byte(95), drv["helmet"].last[0])
	require.NoError(t, e.RenderOnce())
	assert.Equal(t, byte(90), drv["helmet"].last[0])

	ts, _ := e.byName["helmet"].Segment.LastTriggerTime(0)
	assert.Equal(t, uint64(500), ts)
}

func TestApplyErrorsAreDiagnosed(t *testing.T) {
	e, _, _ := newTestEngine(t)
	var got []diagnostics.Diagnostic
	e.OnDiagnostic(func(d diagnostics.Diagnostic) { got = append(got, d) })

	err := e.Apply(Command{Kind: CmdTrigger, Segment: "sleeve"})
	assert.ErrorIs(t, err, ErrUnknownSegment)

	err = e.Apply(Command{Kind: CmdTrigger, Segment: "helmet", Index: 48})
	assert.ErrorIs(t, err, model.ErrIndexOutOfRange)

	err = e.Apply(Command{Kind: "explode"})
	assert.ErrorIs(t, err, ErrUnknownCommand)

	err = e.Apply(Command{Kind: CmdSelfTest, Name: "plane_z"})
	assert.Error(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, diagnostics.CodeUnknownSegment, got[0].Code)
	assert.Equal(t, diagnostics.CodeBadIndex, got[1].Code)
	assert.Equal(t, diagnostics.CodeBadCommand, got[2].Code)
}

func TestDriverFailureDoesNotStopFrame(t *testing.T) {
	e, _, drv := newTestEngine(t)
	drv["chest"].err = errors.New("bus fault")

	var diags []diagnostics.Diagnostic
	e.OnDiagnostic(func(d diagnostics.Diagnostic) { diags = append(diags, d) })

	err := e.RenderOnce()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chest")
	assert.Equal(t, 1, drv["helmet"].writes, "other outputs still render")

	_ = e.RenderOnce()
	require.Len(t, diags, 1, "a failing driver is reported once")
	assert.Equal(t, diagnostics.CodeDriverWrite, diags[0].Code)

	drv["chest"].err = nil
	assert.NoError(t, e.RenderOnce())
	assert.False(t, e.byName["chest"].failing)
}

func TestQueueFull(t *testing.T) {
	e, _, _ := newTestEngine(t)
	for i := 0; i < queueSize; i++ {
		require.NoError(t, e.Submit(Command{Kind: CmdPulseEnd}))
	}
	assert.ErrorIs(t, e.Submit(Command{Kind: CmdPulseEnd}), ErrQueueFull)

	require.NoError(t, e.RenderOnce())
	assert.NoError(t, e.Submit(Command{Kind: CmdPulseEnd}))
}

func TestWaveEffectRunsToCompletion(t *testing.T) {
	e, clk, _ := newTestEngine(t)
	e.SetWaveDefaults(WaveParams{Color: model.RGB{R: 255}, Speed: 2000, Tail: 100})

	var done []string
	e.OnDiagnostic(func(d diagnostics.Diagnostic) {
		if d.Code == diagnostics.CodeEffectDone {
			done = append(done, d.Segment)
		}
	})

	require.NoError(t, e.Submit(Command{Kind: CmdWave}))
	for i := 0; i < 200 && len(done) < 2; i++ {
		clk.now += 16
		require.NoError(t, e.RenderOnce())
	}
	assert.ElementsMatch(t, []string{"chest", "helmet"}, done)

	for _, name := range []string{"chest", "helmet"} {
		s := e.byName[name].Segment
		assert.False(t, s.PulseActive())
		assert.False(t, s.LiveMode())
		for i := 0; i < s.LEDCount(); i++ {
			ts, _ := s.LastTriggerTime(i)
			assert.NotZero(t, ts, "%s led %d never flashed", name, i)
		}
	}
}

func TestRestartedWaveRestoresRegime(t *testing.T) {
	e, clk, _ := newTestEngine(t)
	e.SetWaveDefaults(WaveParams{Color: model.RGB{R: 255}, Speed: 2000, Tail: 100})
	s := e.byName["chest"].Segment

	require.NoError(t, e.Apply(Command{Kind: CmdWave, Segment: "chest"}))
	for i := 0; i < 5; i++ {
		clk.now += 16
		require.NoError(t, e.RenderOnce())
	}
	require.True(t, s.LiveMode())

	require.NoError(t, e.Apply(Command{Kind: CmdWave, Segment: "chest"}))
	for i := 0; i < 300 && len(e.byName["chest"].effects) > 0; i++ {
		clk.now += 16
		require.NoError(t, e.RenderOnce())
	}
	require.Empty(t, e.byName["chest"].effects)
	assert.False(t, s.LiveMode(), "regime from before the first wave")
	assert.False(t, s.PulseActive())

	require.NoError(t, e.Apply(Command{Kind: CmdSetAll, Segment: "chest", Color: model.RGB{G: 200}}))
	for i := 0; i < 50; i++ {
		require.NoError(t, e.RenderOnce())
	}
	assert.Equal(t, 200, s.Green(0))
}

func TestStoppedWaveEndsPulse(t *testing.T) {
	e, clk, _ := newTestEngine(t)
	s := e.byName["helmet"].Segment

	require.NoError(t, e.Apply(Command{Kind: CmdWave}))
	for i := 0; i < 5; i++ {
		clk.now += 16
		require.NoError(t, e.RenderOnce())
	}
	require.True(t, s.PulseActive())

	require.NoError(t, e.Apply(Command{Kind: CmdStopEffect, Name: SlotWave}))
	assert.Empty(t, e.byName["helmet"].effects)
	assert.False(t, s.LiveMode())
	assert.False(t, s.PulseActive())
}

func TestSelfTestStopsWave(t *testing.T) {
	e, clk, _ := newTestEngine(t)
	s := e.byName["helmet"].Segment
	s.SetLiveMode(true)

	require.NoError(t, e.Apply(Command{Kind: CmdWave, Segment: "helmet"}))
	clk.now += 16
	require.NoError(t, e.RenderOnce())

	require.NoError(t, e.Apply(Command{Kind: CmdSelfTest, Segment: "helmet", Name: string(effect.RGBChannels), Index: 1000}))
	assert.NotContains(t, e.byName["helmet"].effects, SlotWave)
	assert.False(t, s.PulseActive())

	for i := 0; i < 60; i++ {
		require.NoError(t, e.RenderOnce())
	}
	assert.Greater(t, s.Red(0), 0, "pattern shows on a live segment")

	require.NoError(t, e.Apply(Command{Kind: CmdStopEffect, Segment: "helmet"}))
	assert.True(t, s.LiveMode(), "live mode from before the wave")
}

func TestBrightnessWhileBreathing(t *testing.T) {
	e, clk, _ := newTestEngine(t)
	s := e.byName["chest"].Segment
	flat := effect.DefaultBreath(1, 1, 2)

	require.NoError(t, e.Apply(Command{Kind: CmdBreathe, Segment: "chest", Envelope: flat}))
	require.NoError(t, e.Apply(Command{Kind: CmdBrightness, Segment: "chest", Value: 0.4}))
	clk.now += 500
	require.NoError(t, e.RenderOnce())
	assert.InDelta(t, 0.4, s.Brightness(), 1e-9)

	require.NoError(t, e.Apply(Command{Kind: CmdStopEffect, Segment: "chest", Name: SlotBreathe}))
	assert.InDelta(t, 0.4, s.Brightness(), 1e-9)
}

func TestSelfTestAndStopEffect(t *testing.T) {
	e, _, drv := newTestEngine(t)
	require.NoError(t, e.Apply(Command{Kind: CmdSelfTest, Segment: "helmet", Name: string(effect.RGBChannels), Index: 1000}))
	require.NoError(t, e.Apply(Command{Kind: CmdBreathe, Segment: "helmet"}))
	require.Len(t, e.byName["helmet"].effects, 2)

	for i := 0; i < 100; i++ {
		require.NoError(t, e.RenderOnce())
	}
	assert.Greater(t, drv["helmet"].last[0], byte(0), "red channel pattern")

	require.NoError(t, e.Apply(Command{Kind: CmdStopEffect, Segment: "helmet", Name: SlotBreathe}))
	assert.Len(t, e.byName["helmet"].effects, 1)
	require.NoError(t, e.Apply(Command{Kind: CmdStopEffect}))
	assert.Empty(t, e.byName["helmet"].effects)
}

func TestOnFrameCopiesBytes(t *testing.T) {
	e, _, _ := newTestEngine(t)
	var frames []Frame
	e.OnFrame(func(f Frame) { frames = append(frames, f) })

	require.NoError(t, e.Apply(Command{Kind: CmdSetAll, Segment: "chest", Color: model.RGB{B: 255}}))
	require.NoError(t, e.RenderOnce())
	require.NoError(t, e.RenderOnce())

	require.Len(t, frames, 2)
	assert.Equal(t, uint64(1), frames[0].ID)
	require.Len(t, frames[0].Segments, 2)
	assert.Equal(t, "chest", frames[0].Segments[0].Name)
	assert.Less(t, frames[0].Segments[0].RGB[2], frames[1].Segments[0].RGB[2], "earlier frame is not overwritten")
}

func TestOutputs(t *testing.T) {
	e, _, _ := newTestEngine(t)
	infos := e.Outputs()
	require.Len(t, infos, 2)
	assert.Equal(t, Info{Name: "helmet", ID: 4, Band: "head", Count: 48, Heights: model.Head.Heights()}, infos[1])
}

func TestRunStopsOnCancel(t *testing.T) {
	e, _, drv := newTestEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, drv["chest"].writes, 0)
}
