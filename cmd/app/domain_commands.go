package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/md-riaz/domaindesk/cmd/app/commands"
	"github.com/md-riaz/domaindesk/internal/app"
	"github.com/md-riaz/domaindesk/internal/config"
)

func domainFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "partner-id",
			Aliases:  []string{"p"},
			Required: true,
			Usage:    "Partner ID (UUID)",
		},
		&cli.StringFlag{
			Name:     "domain-id",
			Aliases:  []string{"d"},
			Required: true,
			Usage:    "Domain ID (UUID)",
		},
	}
}

func getDomainCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "enqueue-registration",
			Usage: "Queue the registration of a pending domain",
			Flags: append(domainFlags(), formatFlag()),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				domainUseCase, err := container.DomainUseCase()
				if err != nil {
					return err
				}

				return commands.RunEnqueueRegistration(
					ctx,
					domainUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("partner-id"),
					cmd.String("domain-id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "enqueue-renewal",
			Usage: "Queue the renewal of a domain",
			Flags: append(domainFlags(),
				&cli.IntFlag{
					Name:    "years",
					Aliases: []string{"y"},
					Value:   1,
					Usage:   "Renewal term in years (1-10)",
				},
				&cli.BoolFlag{
					Name:  "force",
					Value: false,
					Usage: "Renew even when auto-renew is disabled",
				},
				formatFlag(),
			),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				domainUseCase, err := container.DomainUseCase()
				if err != nil {
					return err
				}

				return commands.RunEnqueueRenewal(
					ctx,
					domainUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("partner-id"),
					cmd.String("domain-id"),
					int(cmd.Int("years")),
					cmd.Bool("force"),
					cmd.String("format"),
				)
			},
		},
	}
}
