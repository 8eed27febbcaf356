package main

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coreman2200/funtimes-suitstrip/internal/config"
)

type options struct {
	configPath string
	logLevel   string
	jsonLogs   bool

	addr       string
	driver     string
	fps        int
	brightness float64
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "suitstrip",
		Short:         "Render and drive the LED segments of a light suit",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging(o.jsonLogs)
		},
	}
	root.PersistentFlags().StringVarP(&o.configPath, "config", "c", "suitstrip.yaml", "path to the YAML config")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "override the configured log level")
	root.PersistentFlags().BoolVar(&o.jsonLogs, "log-json", false, "log JSON instead of console text")

	root.AddCommand(newRunCmd(o), newSimCmd(o))
	return root
}

func setupLogging(json bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	if !json {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}
}

// loadConfig reads the config file, falling back to the defaults when it does
// not exist, then applies flags explicitly set on the command line.
func loadConfig(cmd *cobra.Command, o *options) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", o.configPath).Msg("config not found; using defaults")
		cfg = config.Default()
	case err != nil:
		return nil, err
	}

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		switch f.Name {
		case "log-level":
			cfg.LogLevel = o.logLevel
		case "addr":
			cfg.Addr = o.addr
		case "driver":
			cfg.Driver = o.driver
		case "fps":
			cfg.FPS = o.fps
		case "brightness":
			cfg.Brightness = o.brightness
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(cfg.Level())
	return cfg, nil
}

func addOutputFlags(cmd *cobra.Command, o *options) {
	cmd.Flags().StringVar(&o.driver, "driver", "sim", "driver: spi | console | sim")
	cmd.Flags().IntVar(&o.fps, "fps", 60, "target frames per second")
	cmd.Flags().Float64Var(&o.brightness, "brightness", 0.8, "initial brightness 0..1")
}
