package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/sidsin/blog"
	"github.com/sidsin/blog/cmd/internal/commands"
	"github.com/sidsin/blog/lambdahttp"
)

var (
	version = "dev"
	cli     struct {
		Dev bool `env:"DEV"`
		commands.SiteFlags `embed:""`
	}
)

func main() {
	ctx := context.Background()

	// Configuration comes from the function environment only.
	parser, err := kong.New(&cli, kong.Name("site-lambda"))
	if err != nil {
		log.Fatal().Err(err).Msg("build config parser")
	}
	if _, err := parser.Parse(nil); err != nil {
		log.Fatal().Err(err).Msg("parse config")
	}

	logger := blog.NewLogger(cli.Dev)
	cfg, err := cli.Config(ctx, cli.Dev)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	app, err := blog.New(cfg, blog.WithLogger(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("init site")
	}
	logger.Info().Str("version", version).Msg("lambda ready")

	lambda.Start(lambdahttp.Handler(app.Handler()))
}
