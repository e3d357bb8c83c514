package main

import (
	"github.com/urfave/cli/v3"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getDomainCommands()...)
	cmds = append(cmds, getRegistrarCommands()...)
	cmds = append(cmds, getWalletCommands()...)
	return cmds
}

// formatFlag is the --format flag shared by commands with printable output.
func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}
