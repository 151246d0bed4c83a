package commands

import (
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:      "show-elephants",
		Usage:     "Print the connections which transferred the most bytes",
		ArgsUsage: "<stats file>",
		Flags: []cli.Flag{
			humanFlag,
			limitFlag,
			noLimitFlag,
		},
		Action: func(c *cli.Context) error {
			report, err := loadReport(c)
			if err != nil {
				return err
			}

			var rows [][]string
			for _, flow := range report.ElephantFlows {
				rows = append(rows, []string{flow.Connection, f(flow.Bytes)})
			}
			return showRows(c, []string{"Connection", "Bytes"}, rows)
		},
	}
	bootstrapCommands(command)
}
