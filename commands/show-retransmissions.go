package commands

import (
	"sort"

	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:      "show-retransmissions",
		Usage:     "Print the retransmission rate of each source address",
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

			ips := make([]string, 0, len(report.RetransmissionRate))
			for ip := range report.RetransmissionRate {
				ips = append(ips, ip)
			}
			sort.Slice(ips, func(i, j int) bool {
				a, b := report.RetransmissionRate[ips[i]], report.RetransmissionRate[ips[j]]
				if a != b {
					return a > b
				}
				return ips[i] < ips[j]
			})

			rows := make([][]string, 0, len(ips))
			for _, ip := range ips {
				rows = append(rows, []string{ip, f(report.RetransmissionRate[ip])})
			}
			return showRows(c, []string{"Source IP", "Retransmission Rate"}, rows)
		},
	}
	bootstrapCommands(command)
}
