package commands

import (
	"strconv"

	"github.com/DaviCMachado/T2-Redes/pkg/traffic"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:      "show-distribution",
		Usage:     "Print the packet size distribution",
		ArgsUsage: "<stats file>",
		Flags: []cli.Flag{
			humanFlag,
		},
		Action: func(c *cli.Context) error {
			report, err := loadReport(c)
			if err != nil {
				return err
			}
			if report.PacketSizes.Count == 0 {
				return cli.NewExitError("No results were found for "+c.Args().Get(0), -1)
			}
			return showRows(c, []string{"Statistic", "Bytes"}, distributionRows(report.PacketSizes))
		},
	}
	bootstrapCommands(command)
}

func distributionRows(d traffic.Distribution) [][]string {
	return [][]string{
		{"count", strconv.Itoa(d.Count)},
		{"min", f(d.Min)},
		{"p25", f(d.P25)},
		{"median", f(d.Median)},
		{"mean", f(d.Mean)},
		{"p75", f(d.P75)},
		{"p90", f(d.P90)},
		{"p95", f(d.P95)},
		{"p99", f(d.P99)},
		{"max", f(d.Max)},
		{"stddev", f(d.StdDev)},
	}
}
