package model

import (
	"image/color"
	"math"
)

// RGB is an unclamped color in driver intensity units, conventionally 0..255.
type RGB struct {
	R, G, B float64
}

var Black = RGB{}

func (c RGB) Lerp(to RGB, pct float64) RGB {
	return RGB{
		R: Lerp(c.R, to.R, pct),
		G: Lerp(c.G, to.G, pct),
		B: Lerp(c.B, to.B, pct),
	}
}

func (c RGB) Scale(s float64) RGB {
	return RGB{R: c.R * s, G: c.G * s, B: c.B * s}
}

// ToNRGBA clamps each channel into a byte.
func (c RGB) ToNRGBA() color.NRGBA {
	return color.NRGBA{R: channelByte(c.R), G: channelByte(c.G), B: channelByte(c.B), A: 255}
}

func channelByte(v float64) uint8 {
	return uint8(clamp(math.Round(v), 0, 255))
}
