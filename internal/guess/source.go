package guess

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ErrLength indicates an initial-guess vector of the wrong size.
var ErrLength = errors.New("guess: initial guess length mismatch")

// Source supplies one externally produced initial-guess trajectory per
// experiment index (1-based). A failed load is a data error for that
// experiment only; the driver never substitutes a default guess.
type Source interface {
	Load(index int) ([]float64, error)
}

// FileSource reads flat guess vectors from CSV files in a directory, one
// file per experiment index. Any row shape is accepted; fields are flattened
// in row-major order. A single non-numeric leading row is treated as a
// header, anything malformed after that is an error.
type FileSource struct {
	dir  string
	size int
}

func NewFileSource(dir string, size int) *FileSource {
	return &FileSource{dir: dir, size: size}
}

// Path returns the file addressed by an experiment index.
func (s *FileSource) Path(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("initial_guess_%02d.csv", index))
}

func (s *FileSource) Load(index int) ([]float64, error) {
	path := s.Path(index)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("guess: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("guess: %s: %w", path, err)
	}

	values := make([]float64, 0, s.size)
	for rowIdx, record := range records {
		row, col, err := parseRecord(record)
		if err != nil {
			if rowIdx == 0 {
				// header row, skipped as a whole
				continue
			}
			return nil, fmt.Errorf("guess: %s row %d col %d: %w", path, rowIdx+1, col+1, err)
		}
		values = append(values, row...)
	}

	if len(values) != s.size {
		return nil, fmt.Errorf("%w: %s holds %d values, want %d", ErrLength, path, len(values), s.size)
	}
	return values, nil
}

// parseRecord converts one CSV record; a row contributes values only when it
// parses in full. On failure it reports the offending column.
func parseRecord(record []string) ([]float64, int, error) {
	row := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, i, err
		}
		row[i] = v
	}
	return row, 0, nil
}
