package commands

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/DaviCMachado/T2-Redes/pkg/stats"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// loadReport reads the statistics document named by the first argument
func loadReport(c *cli.Context) (*stats.Report, error) {
	statsFile := c.Args().Get(0)
	if statsFile == "" {
		return nil, cli.NewExitError("Specify a statistics file", -1)
	}

	report, err := stats.ReadReport(statsFile)
	if err != nil {
		return nil, cli.NewExitError(err.Error(), -1)
	}
	return report, nil
}

// limitRows applies the limit and no-limit flags
func limitRows(c *cli.Context, rows [][]string) [][]string {
	if c.Bool("no-limit") || c.Int("limit") <= 0 || len(rows) <= c.Int("limit") {
		return rows
	}
	return rows[:c.Int("limit")]
}

// renderRows writes a header and rows as csv or, when human is set, as a table
func renderRows(w io.Writer, human bool, header []string, rows [][]string) error {
	if human {
		table := tablewriter.NewWriter(w)
		table.SetHeader(header)
		table.AppendBulk(rows)
		table.Render()
		return nil
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(header); err != nil {
		return err
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return err
	}
	return csvWriter.Error()
}

// showRows renders the rows of a show command to the app's writer
func showRows(c *cli.Context, header []string, rows [][]string) error {
	if len(rows) == 0 {
		return cli.NewExitError("No results were found for "+c.Args().Get(0), -1)
	}
	err := renderRows(c.App.Writer, c.Bool("human-readable"), header, limitRows(c, rows))
	if err != nil {
		return cli.NewExitError(err.Error(), -1)
	}
	return nil
}

func f(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
