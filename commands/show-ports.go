package commands

import (
	"strconv"

	"github.com/urfave/cli"
)

func init() {
	ports := cli.Command{
		Name:      "show-ports",
		Usage:     "Print the most contacted destination ports",
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
			for _, port := range report.TopPorts {
				rows = append(rows, []string{strconv.Itoa(port.Port), strconv.Itoa(port.Packets)})
			}
			return showRows(c, []string{"Destination Port", "Packets"}, rows)
		},
	}

	ips := cli.Command{
		Name:      "show-ips",
		Usage:     "Print the most contacted destination addresses",
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
			for _, ip := range report.TopIPs {
				rows = append(rows, []string{ip.IP, strconv.Itoa(ip.Packets)})
			}
			return showRows(c, []string{"Destination IP", "Packets"}, rows)
		},
	}

	bootstrapCommands(ports, ips)
}
