package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/ctrlkit/pushopt/internal/layout"
)

// Store persists one result directory per experiment under a base directory.
// IDs derive from the experiment index, so re-running a batch overwrites the
// same experiment's result instead of colliding on wall-clock names.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// ResultID formats the storage key for an experiment index.
func ResultID(experiment int) string {
	return fmt.Sprintf("experiment_%02d", experiment)
}

type ResultMetadata struct {
	ID           string    `json:"id"`
	Experiment   int       `json:"experiment"`
	Timestamp    time.Time `json:"timestamp"`
	Dt           float64   `json:"dt"`
	Steps        int       `json:"steps"`
	InitialState []float64 `json:"initial_state"`
	TargetState  []float64 `json:"target_state"`

	Converged            bool    `json:"converged"`
	Iterations           int     `json:"iterations"`
	Objective            float64 `json:"objective"`
	MaxEqualityViolation float64 `json:"max_equality_violation"`
	MinInequality        float64 `json:"min_inequality"`
}

// Save writes metadata.json and trajectory.csv for one experiment result.
// meta.ID is derived from meta.Experiment when empty.
func (s *Store) Save(meta ResultMetadata, traj []float64) (string, error) {
	if meta.ID == "" {
		meta.ID = ResultID(meta.Experiment)
	}
	lay, err := layout.New(meta.Steps)
	if err != nil {
		return "", err
	}
	if len(traj) != lay.Size() {
		return "", fmt.Errorf("store: trajectory holds %d values, want %d", len(traj), lay.Size())
	}

	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(dir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := append([]string{"time"}, layout.FieldNames()...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	row := make([]string, 1+layout.BlockWidth)
	for i := 0; i < lay.Horizon; i++ {
		row[0] = strconv.FormatFloat(float64(i)*meta.Dt, 'f', 6, 64)
		b := lay.Block(traj, i)
		for j := 0; j < layout.BlockWidth; j++ {
			row[1+j] = strconv.FormatFloat(b.Get(layout.Field(j)), 'f', 9, 64)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return meta.ID, nil
}

func (s *Store) Load(id string) (*ResultMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta ResultMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// List returns metadata for all stored results, ordered by experiment index.
func (s *Store) List() ([]ResultMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ResultMetadata{}, nil
		}
		return nil, err
	}

	results := make([]ResultMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		results = append(results, *meta)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Experiment < results[j].Experiment
	})
	return results, nil
}

// LoadTrajectory reads a stored trajectory back as a flat vector plus the
// per-block times.
func (s *Store) LoadTrajectory(id string) ([]float64, []float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, id, "trajectory.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("store: %s: empty trajectory", id)
	}

	traj := make([]float64, 0, (len(records)-1)*layout.BlockWidth)
	times := make([]float64, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) != 1+layout.BlockWidth {
			return nil, nil, fmt.Errorf("store: %s row %d has %d columns, want %d", id, i+1, len(record), 1+layout.BlockWidth)
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("store: %s row %d: %w", id, i+1, err)
		}
		times = append(times, t)
		for _, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("store: %s row %d: %w", id, i+1, err)
			}
			traj = append(traj, v)
		}
	}
	return traj, times, nil
}
