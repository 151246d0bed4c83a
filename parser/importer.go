package parser

import (
	"errors"
	"fmt"
	"os"

	"github.com/DaviCMachado/T2-Redes/config"
	"github.com/DaviCMachado/T2-Redes/parser/parsetypes"
	"github.com/DaviCMachado/T2-Redes/pkg/packet"
	"github.com/DaviCMachado/T2-Redes/resources"
	"github.com/pbnjay/memory"
	log "github.com/sirupsen/logrus"
)

// ErrNoInputFiles is returned when none of the given paths is a dataset
var ErrNoInputFiles = errors.New("no packet datasets found")

type (
	// ImportStats counts what happened to the rows of an import
	ImportStats struct {
		Files            int   `bson:"files"`
		Bytes            int64 `bson:"bytes"`
		Rows             int   `bson:"rows"`
		Malformed        int   `bson:"malformed"`
		InvalidTimestamp int   `bson:"invalid_timestamp"`
		Filtered         int   `bson:"filtered"`
		Records          int   `bson:"records"`
	}

	// Importer reads packet datasets into normalized records
	Importer struct {
		log    *log.Logger
		config *config.Config
		filter *filter
	}
)

// NewImporter creates an importer using the filtering configuration of res
func NewImporter(res *resources.Resources) (*Importer, error) {
	f, err := newFilter(res.Config, res.Log)
	if err != nil {
		return nil, err
	}
	return &Importer{
		log:    res.Log,
		config: res.Config,
		filter: f,
	}, nil
}

// Import reads every dataset under paths. Malformed rows are skipped and
// counted. A file that cannot be read or lacks a required column fails the
// whole import, as does an import without a single data row.
func (im *Importer) Import(paths []string) ([]*packet.Record, *ImportStats, error) {
	inputs := GatherInputFiles(paths, im.log)
	if len(inputs) == 0 {
		return nil, nil, ErrNoInputFiles
	}

	stats := &ImportStats{Files: len(inputs)}
	for _, input := range inputs {
		if info, err := os.Stat(input); err == nil {
			stats.Bytes += info.Size()
		}
	}
	im.checkMemory(stats.Bytes)

	var records []*packet.Record
	emit := func(row parsetypes.PacketRow) {
		record, ok := packet.Normalize(row)
		if !ok {
			stats.InvalidTimestamp++
			im.log.WithFields(log.Fields{
				"timestamp": row.Timestamp,
			}).Debug("Dropping row with invalid timestamp")
			return
		}
		if im.filter.filterPacket(record) {
			stats.Filtered++
			return
		}
		records = append(records, record)
	}

	for _, input := range inputs {
		if err := im.importFile(input, emit, stats); err != nil {
			return nil, stats, fmt.Errorf("could not import %s: %w", input, err)
		}
	}

	if stats.Rows == 0 {
		return nil, stats, ErrEmptyInput
	}
	stats.Records = len(records)

	im.log.WithFields(log.Fields{
		"files":             stats.Files,
		"rows":              stats.Rows,
		"malformed":         stats.Malformed,
		"invalid_timestamp": stats.InvalidTimestamp,
		"filtered":          stats.Filtered,
		"records":           stats.Records,
	}).Info("Finished reading packet datasets")

	return records, stats, nil
}

func (im *Importer) importFile(input string, emit func(parsetypes.PacketRow), stats *ImportStats) error {
	reader, format, closer, err := openInput(input)
	if err != nil {
		return err
	}

	im.log.WithFields(log.Fields{
		"path": input,
	}).Debug("Reading dataset")

	switch format {
	case formatJSONLines:
		err = readJSONLines(reader, emit, stats, im.log)
	default:
		err = readCSV(reader, emit, stats, im.log)
	}

	closeErr := closer()
	if err != nil {
		if closeErr != nil {
			im.log.WithFields(log.Fields{
				"path":  input,
				"error": closeErr.Error(),
			}).Debug("Error closing dataset")
		}
		return err
	}
	// a corrupt archive only surfaces in the exit status of the decompressor
	if closeErr != nil {
		return fmt.Errorf("could not read dataset: %w", closeErr)
	}
	return nil
}

// checkMemory warns when the datasets are unlikely to fit in memory. The
// whole dataset is held in memory for the duration of a run.
func (im *Importer) checkMemory(inputBytes int64) {
	total := memory.TotalMemory()
	if total == 0 {
		return
	}
	if uint64(inputBytes) > total/2 {
		im.log.WithFields(log.Fields{
			"input_bytes":  inputBytes,
			"system_bytes": total,
		}).Warn("Input datasets exceed half of the system memory")
	}
}
