package commands

import (
	"strconv"

	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:      "show-microbursts",
		Usage:     "Print the busiest seconds of the capture",
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
			for _, burst := range report.Microbursts {
				rows = append(rows, []string{burst.Timestamp, strconv.Itoa(burst.Packets)})
			}
			return showRows(c, []string{"Second", "Packets"}, rows)
		},
	}
	bootstrapCommands(command)
}
