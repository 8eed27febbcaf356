package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-suitstrip/model"
)

var ErrInvalid = errors.New("invalid config")

// Color is an RGB triple written as a hex literal, e.g. "#FF6A00".
type Color model.RGB

func (c Color) RGB() model.RGB { return model.RGB(c) }

func ParseColor(s string) (Color, error) {
	if s == "" {
		return Color{}, nil
	}
	cc, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	r, g, b := cc.RGB255()
	return Color{R: float64(r), G: float64(g), B: float64(b)}, nil
}

func (c Color) String() string {
	return colorful.Color{R: c.R / 255, G: c.G / 255, B: c.B / 255}.Clamped().Hex()
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Color) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

type SPI struct {
	FreqKHz int `yaml:"freq_khz"` // e.g. 2500
}

type Segment struct {
	Name  string `yaml:"name"`
	ID    int    `yaml:"id"`             // selects LED count and height table
	Port  string `yaml:"port,omitempty"` // spi port name, "" = first available
	Live  bool   `yaml:"live,omitempty"`
	Color Color  `yaml:"color,omitempty"` // initial fill
}

// Power budgets the current drawn by each segment. Zero disables limiting.
type Power struct {
	BudgetMA float64 `yaml:"budget_ma"`
	ChanMA   float64 `yaml:"chan_ma,omitempty"`
}

type Wave struct {
	Color  Color   `yaml:"color"`
	Speed  float64 `yaml:"speed"` // height units per second
	TailMS int     `yaml:"tail_ms"`
}

type Breathe struct {
	Enabled bool    `yaml:"enabled"`
	Low     float64 `yaml:"low"`
	High    float64 `yaml:"high"`
	PeriodS float64 `yaml:"period_s"`
}

type Config struct {
	LogLevel   string  `yaml:"log_level"`
	Addr       string  `yaml:"addr"`
	Driver     string  `yaml:"driver"` // "spi" | "console" | "sim"
	FPS        int     `yaml:"fps"`
	Brightness float64 `yaml:"brightness"`

	SPI      SPI       `yaml:"spi,omitempty"`
	Power    Power     `yaml:"power,omitempty"`
	Segments []Segment `yaml:"segments"`
	Wave     Wave      `yaml:"wave"`
	Breathe  Breathe   `yaml:"breathe"`
}

// Default describes the five segments of the suit.
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		Addr:       ":8080",
		Driver:     "sim",
		FPS:        60,
		Brightness: 0.8,
		SPI:        SPI{FreqKHz: 2500},
		Segments: []Segment{
			{Name: "top-left", ID: 0},
			{Name: "top-right", ID: 1},
			{Name: "bottom-left", ID: 2},
			{Name: "bottom-right", ID: 3},
			{Name: "helmet", ID: 4},
		},
		Wave: Wave{
			Color:  Color{R: 255, G: 106, B: 0},
			Speed:  600,
			TailMS: 2000,
		},
		Breathe: Breathe{Low: 0.3, High: 1, PeriodS: 4},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	switch c.Driver {
	case "spi", "console", "sim":
	default:
		return fmt.Errorf("%w: driver %q", ErrInvalid, c.Driver)
	}
	if c.FPS <= 0 || c.FPS > 240 {
		return fmt.Errorf("%w: fps %d", ErrInvalid, c.FPS)
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		return fmt.Errorf("%w: brightness %v outside [0,1]", ErrInvalid, c.Brightness)
	}
	if len(c.Segments) == 0 {
		return fmt.Errorf("%w: no segments", ErrInvalid)
	}
	seen := map[string]bool{}
	for _, s := range c.Segments {
		if s.Name == "" {
			return fmt.Errorf("%w: segment id %d has no name", ErrInvalid, s.ID)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate segment %q", ErrInvalid, s.Name)
		}
		seen[s.Name] = true
	}
	if c.Power.BudgetMA < 0 || c.Power.ChanMA < 0 {
		return fmt.Errorf("%w: power budget must not be negative", ErrInvalid)
	}
	if c.Wave.Speed < 0 || c.Wave.TailMS < 0 {
		return fmt.Errorf("%w: wave speed and tail must not be negative", ErrInvalid)
	}
	return nil
}

// Level is the parsed log level; Validate guarantees it parses.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
