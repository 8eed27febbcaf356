package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coreman2200/funtimes-suitstrip/internal/config"
	"github.com/coreman2200/funtimes-suitstrip/internal/effect"
	"github.com/coreman2200/funtimes-suitstrip/internal/render"
	"github.com/coreman2200/funtimes-suitstrip/model"
)

// message is the control wire format. Color is a hex literal; RGB, when
// present, takes precedence.
type message struct {
	Cmd      string           `json:"cmd"`
	Segment  string           `json:"segment,omitempty"`
	Index    int              `json:"index,omitempty"`
	Color    string           `json:"color,omitempty"`
	RGB      []float64        `json:"rgb,omitempty"`
	Value    float64          `json:"value,omitempty"`
	On       bool             `json:"on,omitempty"`
	Name     string           `json:"name,omitempty"`
	Envelope *effect.Envelope `json:"envelope,omitempty"`
}

type reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

var errBadMessage = errors.New("bad control message")

func (s *Server) control(data []byte) error {
	var m message
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: %v", errBadMessage, err)
	}
	cmd, err := m.command()
	if err != nil {
		return err
	}
	if cmd.Segment != "" && !s.knownSegment(cmd.Segment) {
		return fmt.Errorf("%w: %q", render.ErrUnknownSegment, cmd.Segment)
	}
	return s.eng.Submit(cmd)
}

func (s *Server) knownSegment(name string) bool {
	for _, o := range s.eng.Outputs() {
		if o.Name == name {
			return true
		}
	}
	return false
}

func (m message) command() (render.Command, error) {
	c := render.Command{
		Kind:    render.CommandKind(m.Cmd),
		Segment: m.Segment,
		Index:   m.Index,
		Value:   m.Value,
		On:      m.On,
		Name:    m.Name,
	}
	if m.Envelope != nil {
		c.Envelope = *m.Envelope
	}

	switch {
	case len(m.RGB) == 3:
		c.Color = model.RGB{R: m.RGB[0], G: m.RGB[1], B: m.RGB[2]}
	case len(m.RGB) != 0:
		return c, fmt.Errorf("%w: rgb needs 3 channels", errBadMessage)
	case m.Color != "":
		col, err := config.ParseColor(m.Color)
		if err != nil {
			return c, fmt.Errorf("%w: %v", errBadMessage, err)
		}
		c.Color = col.RGB()
	}

	switch c.Kind {
	case render.CmdTrigger, render.CmdSetColor, render.CmdSetAll, render.CmdBrightness,
		render.CmdPulseStart, render.CmdPulseEnd, render.CmdLive, render.CmdWave,
		render.CmdBreathe, render.CmdSelfTest, render.CmdStopEffect:
	default:
		return c, fmt.Errorf("%w: %q", render.ErrUnknownCommand, m.Cmd)
	}
	for _, ch := range []float64{c.Color.R, c.Color.G, c.Color.B} {
		if ch < 0 {
			return c, fmt.Errorf("%w: negative channel", errBadMessage)
		}
	}
	return c, nil
}
