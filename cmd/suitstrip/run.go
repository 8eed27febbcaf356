package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-suitstrip/internal/config"
	"github.com/coreman2200/funtimes-suitstrip/internal/render"
	"github.com/coreman2200/funtimes-suitstrip/internal/ws"
	"github.com/coreman2200/funtimes-suitstrip/model"
)

func newRunCmd(o *options) *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the segments and serve the preview and control websockets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			watchPath := o.configPath
			if noWatch {
				watchPath = ""
			}
			return run(cmd.Context(), cfg, watchPath)
		},
	}
	cmd.Flags().StringVar(&o.addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the config file on change")
	addOutputFlags(cmd, o)
	return cmd
}

func run(ctx context.Context, cfg *config.Config, watchPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := model.NewMonotonicClock()
	outs := buildOutputs(cfg, clock, openerFor(cfg))
	defer closeOutputs(outs)

	eng, err := render.NewEngine(clock, cfg.FPS, outs...)
	if err != nil {
		return err
	}
	eng.SetWaveDefaults(waveDefaults(cfg))
	submitAll(eng, startupCommands(cfg))

	if watchPath != "" {
		w := watchConfig(watchPath, cfg, eng)
		defer w.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      withCORS(ws.NewServer(eng, previewEvery(cfg.FPS)).Routes()),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("driver", cfg.Driver).Int("segments", len(outs)).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	renderDone := make(chan error, 1)
	go func() { renderDone <- eng.Run(ctx) }()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-serveErr:
		log.Error().Err(err).Msg("http server crashed")
		stop()
	}
	<-renderDone
	_ = srv.Close()
	return err
}

// watchConfig applies runtime safe changes of the config file to the engine.
func watchConfig(path string, cfg *config.Config, eng *render.Engine) *config.Watcher[*config.Config] {
	logger := log.With().Str("component", "config").Logger()
	w := config.NewWatcher(path, config.Load, logger,
		config.WithErrorHandler[*config.Config](func(err error) {
			logger.Warn().Err(err).Msg("config reload rejected; keeping current settings")
		}))

	current := cfg
	w.OnReload(func(next *config.Config) {
		cmds := reloadCommands(current, next)
		submitAll(eng, cmds)
		zerolog.SetGlobalLevel(next.Level())
		logger.Info().Int("commands", len(cmds)).Msg("config reloaded")
		current = next
	})
	if err := w.Start(); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("config watch disabled")
	}
	return w
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
