package commands

import (
	"fmt"

	"github.com/DaviCMachado/T2-Redes/config"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:  "version",
		Usage: "Show flowstat version",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "%s (%s)\n", config.Version, config.ExactVersion)
			return nil
		},
	}

	bootstrapCommands(command)
}
