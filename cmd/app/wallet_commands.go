package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/md-riaz/domaindesk/cmd/app/commands"
	"github.com/md-riaz/domaindesk/internal/app"
	"github.com/md-riaz/domaindesk/internal/config"
)

func getWalletCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "wallet-credit",
			Usage: "Top up a partner wallet",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "partner-id",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Partner ID (UUID)",
				},
				&cli.StringFlag{
					Name:     "amount",
					Aliases:  []string{"a"},
					Required: true,
					Usage:    "Amount to credit in the wallet currency (e.g. 25.00)",
				},
				&cli.StringFlag{
					Name:  "description",
					Value: "",
					Usage: "Ledger description",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				walletUseCase, err := container.WalletUseCase()
				if err != nil {
					return err
				}

				return commands.RunWalletCredit(
					ctx,
					walletUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("partner-id"),
					cmd.String("amount"),
					cmd.String("description"),
					cmd.String("format"),
				)
			},
		},
	}
}
