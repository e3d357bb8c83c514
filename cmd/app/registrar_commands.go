package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/md-riaz/domaindesk/cmd/app/commands"
	"github.com/md-riaz/domaindesk/internal/app"
	"github.com/md-riaz/domaindesk/internal/config"
)

func registrarIDFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "registrar-id",
		Aliases:  []string{"r"},
		Required: true,
		Usage:    "Registrar ID (UUID)",
	}
}

func getRegistrarCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "test-registrar",
			Usage: "Test the connection to a configured registrar",
			Flags: []cli.Flag{registrarIDFlag(), formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				registrarUseCase, err := container.RegistrarUseCase()
				if err != nil {
					return err
				}

				return commands.RunTestRegistrar(
					ctx,
					registrarUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("registrar-id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "check-availability",
			Usage: "Check whether a domain name can be registered",
			Flags: []cli.Flag{
				registrarIDFlag(),
				&cli.StringFlag{
					Name:     "domain",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Fully qualified domain name",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				registrarUseCase, err := container.RegistrarUseCase()
				if err != nil {
					return err
				}

				return commands.RunCheckAvailability(
					ctx,
					registrarUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("registrar-id"),
					cmd.String("domain"),
					cmd.String("format"),
				)
			},
		},
	}
}
