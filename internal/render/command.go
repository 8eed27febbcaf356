package render

import (
	"fmt"

	"github.com/coreman2200/funtimes-suitstrip/internal/effect"
	"github.com/coreman2200/funtimes-suitstrip/model"
)

type CommandKind string

const (
	CmdTrigger    CommandKind = "trigger"
	CmdSetColor   CommandKind = "set_color"
	CmdSetAll     CommandKind = "set_all"
	CmdBrightness CommandKind = "brightness"
	CmdPulseStart CommandKind = "pulse_start"
	CmdPulseEnd   CommandKind = "pulse_end"
	CmdLive       CommandKind = "live"
	CmdWave       CommandKind = "wave"
	CmdBreathe    CommandKind = "breathe"
	CmdSelfTest   CommandKind = "self_test"
	CmdStopEffect CommandKind = "stop_effect"
)

// Effect slots, stepped in this order every frame. A segment runs at most one
// effect per slot; starting another stops and replaces it. A wave and a self
// test both take over the segment regime, so starting one stops the other.
const (
	SlotSelfTest = "self_test"
	SlotWave     = "wave"
	SlotBreathe  = "breathe"
)

var slotOrder = []string{SlotSelfTest, SlotWave, SlotBreathe}

// Command is a request to mutate segment state, applied by the render
// goroutine at the start of the next frame.
type Command struct {
	Kind CommandKind
	// Segment names the target; empty targets every segment.
	Segment string

	Index int
	Color model.RGB
	// Value is the brightness for CmdBrightness and the speed for CmdWave.
	// While a segment breathes, CmdBrightness sets the level the envelope
	// is scaled by.
	Value float64
	On    bool
	// Name is the self test kind or the slot for CmdStopEffect.
	Name     string
	Envelope effect.Envelope
}

func (c Command) String() string {
	target := c.Segment
	if target == "" {
		target = "*"
	}
	return fmt.Sprintf("%s@%s", c.Kind, target)
}

// WaveParams fill in what a wave command leaves zero.
type WaveParams struct {
	Color model.RGB
	Speed float64
	Tail  uint64
}
