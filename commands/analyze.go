package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/DaviCMachado/T2-Redes/database"
	"github.com/DaviCMachado/T2-Redes/parser"
	"github.com/DaviCMachado/T2-Redes/pkg/stats"
	"github.com/DaviCMachado/T2-Redes/resources"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:  "analyze",
		Usage: "Compute TCP statistics for packet datasets",
		UsageText: "flowstat analyze [command options] <file or directory>...\n\n" +
			"Reads CSV or JSON lines packet datasets (optionally gzipped) and writes\n" +
			"the full and summary statistics documents. When a MongoDB connection is\n" +
			"configured the run and its statistics are stored as well.",
		Flags: []cli.Flag{
			configFlag,
			cli.StringFlag{
				Name:  "output, o",
				Usage: "Write the statistics documents to `DIRECTORY`",
				Value: "",
			},
			cli.StringFlag{
				Name:  "database, d",
				Usage: "Store the statistics in `DATABASE` instead of the configured one",
				Value: "",
			},
			cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Do not draw progress bars",
			},
		},
		Action: func(c *cli.Context) error {
			paths := []string(c.Args())
			if len(paths) == 0 {
				return cli.NewExitError("Specify at least one packet dataset", -1)
			}

			res, err := resources.InitResources(c.String("config"))
			if err != nil {
				return cli.NewExitError(err.Error(), -1)
			}
			defer res.Close()

			if db := c.String("database"); db != "" {
				if !res.HasDB() {
					return cli.NewExitError("No MongoDB connection is configured", -1)
				}
				res.Config.S.MongoDB.Database = db
				res.DB.SelectDB(db)
			}

			var progress io.Writer = c.App.Writer
			if c.Bool("no-progress") {
				progress = nil
			}

			outDir := c.String("output")
			if outDir == "" {
				outDir = res.Config.S.Output.Directory
			}

			result, err := runAnalysis(res, paths, outDir, progress)
			if err != nil {
				return cli.NewExitError(err.Error(), -1)
			}

			fmt.Fprintf(c.App.Writer, "\t[+] Full statistics written to %s\n", result.FullPath)
			fmt.Fprintf(c.App.Writer, "\t[+] Summary written to %s\n", result.SummaryPath)
			if result.RunID != "" {
				fmt.Fprintf(c.App.Writer, "\t[+] Stored as run %s in %s\n", result.RunID, res.DB.GetSelectedDB())
			}
			return nil
		},
	}
	bootstrapCommands(command)
}

// analysisResult describes where the output of a run went
type analysisResult struct {
	FullPath    string
	SummaryPath string
	RunID       string
	Import      *parser.ImportStats
	Full        *stats.Full
	Summary     *stats.Summary
}

// runAnalysis imports the datasets under paths, computes both statistics
// documents and writes them to outDir. When res holds a database the run is
// recorded and its statistics stored.
func runAnalysis(res *resources.Resources, paths []string, outDir string, progress io.Writer) (*analysisResult, error) {
	result := &analysisResult{
		FullPath:    filepath.Join(outDir, res.Config.S.Output.FullFile),
		SummaryPath: filepath.Join(outDir, res.Config.S.Output.SummaryFile),
	}

	if res.HasDB() {
		runID, err := res.MetaDB.StartRun(paths, res.Config.S.Analysis.Protocol)
		if err != nil {
			return nil, fmt.Errorf("could not record run: %w", err)
		}
		result.RunID = runID
	}

	err := analyzeInto(res, paths, result, progress)
	if err != nil {
		res.Log.WithFields(log.Fields{
			"inputs": paths,
			"error":  err.Error(),
		}).Error("Analysis failed")

		if result.RunID != "" {
			if failErr := res.MetaDB.FailRun(result.RunID, err); failErr != nil {
				res.Log.WithFields(log.Fields{
					"run":   result.RunID,
					"error": failErr.Error(),
				}).Warn("Could not mark run as failed")
			}
		}
		return nil, err
	}
	return result, nil
}

func analyzeInto(res *resources.Resources, paths []string, result *analysisResult, progress io.Writer) error {
	importer, err := parser.NewImporter(res)
	if err != nil {
		return err
	}

	records, importStats, err := importer.Import(paths)
	if err != nil {
		return err
	}
	result.Import = importStats

	opts := stats.NewOptions(res.Config)
	opts.Progress = progress
	full, err := stats.Analyze(records, opts)
	if err != nil {
		return err
	}
	summary := full.Summary(res.Config.S.Analysis.IgnoreZeroOutliers)
	result.Full = full
	result.Summary = summary

	indent := res.Config.S.Output.Indent
	if err := stats.WriteFile(result.FullPath, full, indent); err != nil {
		return fmt.Errorf("could not write %s: %w", result.FullPath, err)
	}
	if err := stats.WriteFile(result.SummaryPath, summary, indent); err != nil {
		return fmt.Errorf("could not write %s: %w", result.SummaryPath, err)
	}

	res.Log.WithFields(log.Fields{
		"full":        result.FullPath,
		"summary":     result.SummaryPath,
		"connections": len(full.Duration),
	}).Info("Wrote statistics documents")

	if result.RunID == "" {
		return nil
	}

	err = res.DB.StoreResult(result.RunID, full, summary,
		res.Config.T.Stat.ConnectionTable, res.Config.T.Stat.SummaryTable, progress)
	if err != nil {
		return fmt.Errorf("could not store statistics: %w", err)
	}

	return res.MetaDB.FinishRun(result.RunID, database.RunCounts{
		Files:            importStats.Files,
		Rows:             importStats.Rows,
		Malformed:        importStats.Malformed,
		InvalidTimestamp: importStats.InvalidTimestamp,
		Filtered:         importStats.Filtered,
		Records:          importStats.Records,
		Connections:      len(full.Duration),
	})
}
