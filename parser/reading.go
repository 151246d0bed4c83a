package parser

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"reflect"
	"sort"
	"strings"

	"github.com/DaviCMachado/T2-Redes/parser/parsetypes"
	"github.com/DaviCMachado/T2-Redes/util"
	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrMissingColumns is returned when a dataset lacks a required column
	ErrMissingColumns = errors.New("required columns missing from header")

	// ErrEmptyInput is returned when the inputs hold no data rows at all
	ErrEmptyInput = errors.New("no data rows found in input")

	// ErrUnsupportedFile is returned for paths which are not packet datasets
	ErrUnsupportedFile = errors.New("file type not recognized")
)

type inputFormat int

const (
	formatCSV inputFormat = iota
	formatJSONLines
)

// inputFormatOf classifies a path by its extensions. A trailing .gz is
// ignored when picking the format.
func inputFormatOf(filePath string) (format inputFormat, gzipped bool, err error) {
	name := strings.ToLower(path.Base(filePath))
	if strings.HasSuffix(name, ".gz") {
		gzipped = true
		name = strings.TrimSuffix(name, ".gz")
	}

	switch {
	case strings.HasSuffix(name, ".csv"):
		return formatCSV, gzipped, nil
	case strings.HasSuffix(name, ".jsonl"), strings.HasSuffix(name, ".ndjson"):
		return formatJSONLines, gzipped, nil
	}
	return formatCSV, gzipped, fmt.Errorf("%w: %s", ErrUnsupportedFile, filePath)
}

// GatherInputFiles expands directories into the datasets they contain and
// drops paths which are not datasets
func GatherInputFiles(paths []string, logger *log.Logger) []string {
	var toReturn []string

	for _, inputPath := range paths {
		if util.IsDir(inputPath) {
			toReturn = append(toReturn, gatherDir(inputPath, logger)...)
			continue
		}
		if _, _, err := inputFormatOf(inputPath); err != nil {
			logger.WithFields(log.Fields{
				"path": inputPath,
			}).Warn("Ignoring file which is not a .csv, .jsonl or .ndjson dataset")
			continue
		}
		toReturn = append(toReturn, inputPath)
	}

	return toReturn
}

// gatherDir reads the directory looking for datasets. Subdirectories are
// not followed.
func gatherDir(dirPath string, logger *log.Logger) []string {
	var toReturn []string
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		logger.WithFields(log.Fields{
			"error": err.Error(),
			"path":  dirPath,
		}).Error("Error when reading directory")
		return nil
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, _, err := inputFormatOf(entry.Name()); err == nil {
			toReturn = append(toReturn, path.Join(dirPath, entry.Name()))
		}
	}
	sort.Strings(toReturn)
	return toReturn
}

// openInput opens a dataset, decompressing it if needed. The returned closer
// releases the file and any decompression process.
func openInput(filePath string) (reader io.Reader, format inputFormat, closer func() error, err error) {
	format, gzipped, err := inputFormatOf(filePath)
	if err != nil {
		return nil, format, nil, err
	}

	fileHandle, err := os.Open(filePath)
	if err != nil {
		return nil, format, nil, err
	}

	if !gzipped {
		return fileHandle, format, fileHandle.Close, nil
	}

	reader, closer, err = newGzipReader(fileHandle)
	if err != nil {
		closer()
		return nil, format, nil, err
	}
	return reader, format, closer, nil
}

//newGzipReader returns an un-gzipped byte stream given a gzip compressed byte stream.
//This method tries to use the system's pigz or gzip implementation before relying on
//Golang's gzip package. Returns stream to read from, a function to
//close the underlying stream, and any err that may occur when opening the stream.
func newGzipReader(fileHandle io.ReadCloser) (reader io.Reader, closer func() error, err error) {
	// by default just close out the underlying file handle
	closer = fileHandle.Close

	var gzipPath string
	if path, err := exec.LookPath("pigz"); err == nil {
		gzipPath = path
	} else if path, err := exec.LookPath("gzip"); err == nil {
		gzipPath = path
	} else {
		reader, err = gzip.NewReader(fileHandle)
		return reader, closer, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	gzipCommand := exec.CommandContext(ctx, gzipPath, "-d", "-c")
	gzipCommand.Stdin = fileHandle

	pipeR, err := gzipCommand.StdoutPipe()
	if err != nil {
		cancel()
		return nil, closer, err
	}

	var cmdStdErr bytes.Buffer
	gzipCommand.Stderr = &cmdStdErr

	if err := gzipCommand.Start(); err != nil {
		cancel()
		return nil, closer, err
	}

	stream := &drainReader{reader: pipeR}

	// an undrained subprocess is killed, a drained one reports its exit status
	closer = func() error {
		if !stream.drained {
			cancel()
		}
		errProc := gzipCommand.Wait()
		cancel()
		errFile := fileHandle.Close()

		if errProc != nil && cmdStdErr.Len() > 0 {
			errProc = fmt.Errorf("%s: %s", errProc.Error(), cmdStdErr.String())
		}
		if errProc != nil && errFile != nil {
			return fmt.Errorf("%s; %s", errProc.Error(), errFile.Error())
		}
		if errProc != nil {
			return errProc
		}
		return errFile
	}

	return stream, closer, nil
}

// drainReader remembers whether the stream was read to the end.
type drainReader struct {
	reader  io.Reader
	drained bool
}

func (d *drainReader) Read(p []byte) (int, error) {
	n, err := d.reader.Read(p)
	if err == io.EOF {
		d.drained = true
	}
	return n, err
}

// headerIndexMap records which PacketRow field each column of a file fills.
// A negative offset marks a column with no field.
type headerIndexMap []int

// mapHeaderToPacketRow matches a header against the csv tags of PacketRow.
// Extra columns are ignored. Every tagged field must be present.
func mapHeaderToPacketRow(header []string, logger *log.Logger) (headerIndexMap, error) {
	structType := reflect.TypeOf(parsetypes.PacketRow{})

	fieldOffsets := make(map[string]int, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		name := structType.Field(i).Tag.Get("csv")
		if name != "" {
			fieldOffsets[name] = i
		}
	}

	indexMap := make(headerIndexMap, len(header))
	found := make(map[string]bool, len(fieldOffsets))
	for index, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		offset, ok := fieldOffsets[name]
		if !ok {
			logger.WithFields(log.Fields{
				"column": name,
			}).Debug("the dataset contains a column with no candidate in the data structure")
			indexMap[index] = -1
			continue
		}
		indexMap[index] = offset
		found[name] = true
	}

	var missing []string
	for _, name := range parsetypes.Columns {
		if !found[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return indexMap, nil
}

// fill copies the columns of a record into a PacketRow
func (m headerIndexMap) fill(record []string) parsetypes.PacketRow {
	var row parsetypes.PacketRow
	data := reflect.ValueOf(&row).Elem()
	for index, text := range record {
		if m[index] < 0 {
			continue
		}
		data.Field(m[index]).SetString(text)
	}
	return row
}

// readCSV streams the rows of a CSV dataset to emit. Rows whose field count
// differs from the header are counted as malformed and skipped.
func readCSV(reader io.Reader, emit func(parsetypes.PacketRow), stats *ImportStats, logger *log.Logger) error {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true
	csvReader.ReuseRecord = true

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read header: %w", err)
	}
	// the header slice is reused by the reader
	header = append([]string(nil), header...)

	indexMap, err := mapHeaderToPacketRow(header, logger)
	if err != nil {
		return err
	}

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// a quoting error only spoils the current line
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				stats.Rows++
				stats.Malformed++
				logger.WithFields(log.Fields{
					"error": err.Error(),
				}).Debug("Skipping unparsable row")
				continue
			}
			return err
		}

		stats.Rows++
		if len(record) != len(header) {
			stats.Malformed++
			logger.WithFields(log.Fields{
				"line":     csvReader.InputOffset(),
				"fields":   len(record),
				"expected": len(header),
			}).Debug("Skipping row with mismatched field count")
			continue
		}
		emit(indexMap.fill(record))
	}
}

// readJSONLines streams a JSON lines dataset to emit. Every object must
// carry the same keys as the CSV header. Lines which fail to decode are
// counted as malformed.
func readJSONLines(reader io.Reader, emit func(parsetypes.PacketRow), stats *ImportStats, logger *log.Logger) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	checkedKeys := false
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		stats.Rows++
		if !checkedKeys {
			keys, err := jsonKeys(line)
			if err != nil {
				stats.Malformed++
				logger.WithFields(log.Fields{
					"error": err.Error(),
				}).Debug("Encountered unparsable JSON in dataset")
				continue
			}
			if _, err := mapHeaderToPacketRow(keys, logger); err != nil {
				return err
			}
			checkedKeys = true
		}

		var row parsetypes.PacketRow
		err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(line, &row)
		if err != nil {
			stats.Malformed++
			logger.WithFields(log.Fields{
				"error": err.Error(),
			}).Debug("Encountered unparsable JSON in dataset")
			continue
		}
		emit(row)
	}
	return scanner.Err()
}

// jsonKeys lists the keys of a JSON object so the first object of a
// JSON lines dataset can be checked like a CSV header
func jsonKeys(line []byte) ([]string, error) {
	var object map[string]jsoniter.RawMessage
	err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(line, &object)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
