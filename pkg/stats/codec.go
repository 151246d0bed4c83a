package stats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

// json sorts map keys so that equal results encode to identical bytes
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Encode writes v as JSON, optionally indented
func Encode(w io.Writer, v interface{}, indent bool) error {
	encoder := json.NewEncoder(w)
	if indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// WriteFile encodes v into the file at path, creating parent directories.
// The file is written under a temporary name and renamed into place so a
// failed run never leaves a truncated document behind.
func WriteFile(path string, v interface{}, indent bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}

	if err := Encode(tmp, v, indent); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("could not encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readFile(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("could not decode %s: %w", path, err)
	}
	return nil
}

// ReadFull loads a full document
func ReadFull(path string) (*Full, error) {
	full := &Full{}
	if err := readFile(path, full); err != nil {
		return nil, err
	}
	return full, nil
}

// ReadSummary loads a summary document
func ReadSummary(path string) (*Summary, error) {
	summary := &Summary{}
	if err := readFile(path, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// ReadReport loads the keys shared by full and summary documents from
// either kind of file
func ReadReport(path string) (*Report, error) {
	report := &Report{}
	if err := readFile(path, report); err != nil {
		return nil, err
	}
	return report, nil
}
