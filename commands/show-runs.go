package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DaviCMachado/T2-Redes/database"
	"github.com/DaviCMachado/T2-Redes/resources"
	"github.com/DaviCMachado/T2-Redes/util"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:      "show-runs",
		Usage:     "Print the analysis runs stored in MongoDB, newest first",
		ArgsUsage: "[run id]",
		Flags: []cli.Flag{
			configFlag,
			humanFlag,
			limitFlag,
			noLimitFlag,
		},
		Action: func(c *cli.Context) error {
			res, err := resources.InitResources(c.String("config"))
			if err != nil {
				return cli.NewExitError(err.Error(), -1)
			}
			defer res.Close()

			if !res.HasDB() {
				return cli.NewExitError("No MongoDB connection is configured", -1)
			}

			limit := c.Int("limit")
			if c.Bool("no-limit") {
				limit = 0
			}
			runs, err := selectRuns(res.MetaDB, c.Args().First(), limit)
			if err != nil {
				return cli.NewExitError(err.Error(), -1)
			}

			if len(runs) == 0 {
				return cli.NewExitError("No runs were found in "+res.Config.S.MongoDB.Database, -1)
			}
			return renderRuns(c, runs)
		},
	}
	bootstrapCommands(command)
}

// runSource is the part of the meta database show-runs reads from
type runSource interface {
	GetRun(id string) (database.RunInfo, error)
	ListRuns(limit int) ([]database.RunInfo, error)
}

// selectRuns returns the run named by id, or the latest runs when id is empty
func selectRuns(source runSource, id string, limit int) ([]database.RunInfo, error) {
	if id == "" {
		return source.ListRuns(limit)
	}
	run, err := source.GetRun(id)
	if err != nil {
		return nil, fmt.Errorf("could not find run %s: %w", id, err)
	}
	return []database.RunInfo{run}, nil
}

func runRows(runs []database.RunInfo) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		finished := ""
		if !run.Finished.IsZero() {
			finished = util.FormatTimestamp(run.Finished)
		}
		rows = append(rows, []string{
			run.ID,
			util.FormatTimestamp(run.Started),
			finished,
			run.Status,
			run.Protocol,
			strconv.Itoa(run.Counts.Records),
			strconv.Itoa(run.Counts.Connections),
			strings.Join(run.Inputs, " "),
		})
	}
	return rows
}

func renderRuns(c *cli.Context, runs []database.RunInfo) error {
	header := []string{"Run", "Started", "Finished", "Status", "Protocol", "Records", "Connections", "Inputs"}
	err := renderRows(c.App.Writer, c.Bool("human-readable"), header, runRows(runs))
	if err != nil {
		return cli.NewExitError(err.Error(), -1)
	}
	return nil
}
