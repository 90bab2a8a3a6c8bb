package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sidsin/blog"
)

type ServeCmd struct {
	Addr string `help:"HTTP listen address" default:":3000" env:"ADDR"`

	SiteFlags `embed:""`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := blog.NewLogger(globals.Dev)

	cfg, err := s.Config(ctx, globals.Dev)
	if err != nil {
		return err
	}
	cfg.Addr = s.Addr

	app, err := blog.New(cfg, blog.WithLogger(log))
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Str("url", cfg.URL).Msg("serving site")
	return app.Start(ctx)
}
