package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/DaviCMachado/T2-Redes/parser/extract"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:      "extract",
		Usage:     "Convert pcap or pcapng captures into a packet dataset",
		ArgsUsage: "<capture>...",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "output, o",
				Usage: "Write the dataset to `FILE`",
				Value: "data.csv",
			},
		},
		Action: func(c *cli.Context) error {
			captures := []string(c.Args())
			if len(captures) == 0 {
				return cli.NewExitError("Specify at least one capture file", -1)
			}

			logger := log.New()
			logger.Out = os.Stderr
			logger.Level = log.WarnLevel

			extractor := extract.NewExtractor(logger)
			stats, err := extractor.ExtractFile(captures, c.String("output"))
			if err != nil {
				return cli.NewExitError(err.Error(), -1)
			}
			printExtractStats(c.App.Writer, stats, c.String("output"))
			return nil
		},
	}
	bootstrapCommands(command)
}

func printExtractStats(w io.Writer, stats *extract.Stats, output string) {
	fmt.Fprintf(w, "\t[+] Read %d frames from %d captures\n", stats.Frames, stats.Files)
	fmt.Fprintf(w, "\t[+] Wrote %d TCP segments to %s (%d frames skipped)\n", stats.Written, output, stats.Skipped)
}
