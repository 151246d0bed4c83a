package commands

import (
	"sort"

	"github.com/DaviCMachado/T2-Redes/pkg/stats"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:      "show-connections",
		Usage:     "Print per connection timing, longest connections first",
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
			return showRows(c,
				[]string{"Connection", "Duration", "Throughput", "RTT", "Establishment", "MSS"},
				connectionRows(report),
			)
		},
	}
	bootstrapCommands(command)
}

// optional renders a per connection value, leaving it blank when missing
func optional(keyed map[string]float64, id string) string {
	value, ok := keyed[id]
	if !ok {
		return ""
	}
	return f(value)
}

// connectionRows lists every connection by descending duration
func connectionRows(report *stats.Report) [][]string {
	ids := make([]string, 0, len(report.Duration))
	for id := range report.Duration {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := report.Duration[ids[i]], report.Duration[ids[j]]
		if a != b {
			return a > b
		}
		return ids[i] < ids[j]
	})

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{
			id,
			f(report.Duration[id]),
			optional(report.Throughput, id),
			optional(report.RTT, id),
			optional(report.EstablishmentTimes, id),
			optional(report.MSS, id),
		})
	}
	return rows
}
