// Package storage persists runs as a directory per run: metadata.json
// plus the labelled trajectory in states.csv.
package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/integrators"
	"github.com/san-kum/pbpksim/internal/pbpk"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"

	timeColumn = "time [hr]"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID           string                 `json:"id"`
	Model        string                 `json:"model"`
	Subject      string                 `json:"subject"`
	Timestamp    time.Time              `json:"timestamp"`
	Solver       string                 `json:"solver"`
	Time         float64                `json:"time"`
	Dt           float64                `json:"dt"`
	Compartments []string               `json:"compartments"`
	Metrics      map[string]float64     `json:"metrics"`
	Scaled       map[string]float64     `json:"scaled_params,omitempty"`
	Warnings     []pbpk.CapacityWarning `json:"warnings,omitempty"`
	Stats        integrators.Stats      `json:"stats"`
}

// Save writes a new run directory and returns its id. ID, Timestamp
// and the trajectory-derived fields of meta are filled in here.
func (s *Store) Save(meta RunMetadata, tr *pbpk.Trajectory) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now().UTC()
	meta.Solver = tr.Solver.String()
	meta.Compartments = tr.Compartments
	meta.Warnings = tr.Warnings
	meta.Stats = tr.Stats

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, tr); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// Header labels the columns of a trajectory table.
func Header(compartments []string) []string {
	header := make([]string, 0, len(compartments)+1)
	header = append(header, timeColumn)
	for _, c := range compartments {
		header = append(header, "activity "+c+" [MBq]")
	}
	return header
}

// WriteCSV writes tr as a table with one row per sample.
func WriteCSV(w io.Writer, tr *pbpk.Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(tr.Compartments)); err != nil {
		return err
	}
	for i, x := range tr.States {
		row := make([]string, 0, len(x)+1)
		row = append(row, strconv.FormatFloat(tr.Times[i], 'f', 6, 64))
		for _, v := range x {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV.
func ReadCSV(r io.Reader) (*pbpk.Trajectory, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) == 0 || records[0][0] != timeColumn {
		return nil, fmt.Errorf("states table: missing %q header", timeColumn)
	}

	tr := &pbpk.Trajectory{}
	for _, col := range records[0][1:] {
		name := strings.TrimSuffix(strings.TrimPrefix(col, "activity "), " [MBq]")
		tr.Compartments = append(tr.Compartments, name)
	}
	for i, rec := range records[1:] {
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("states table row %d: %w", i+1, err)
		}
		x := make(dynamo.State, len(rec)-1)
		for j, field := range rec[1:] {
			if x[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("states table row %d: %w", i+1, err)
			}
		}
		tr.Times = append(tr.Times, t)
		tr.States = append(tr.States, x)
	}
	return tr, nil
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

// Load reads a run's metadata. runID may be a unique prefix of the id.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.resolve(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrajectory reads a run's states table back.
func (s *Store) LoadTrajectory(runID string) (*pbpk.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.baseDir, meta.ID, statesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tr, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	tr.Solver = integrators.Method(meta.Solver)
	tr.Warnings = meta.Warnings
	tr.Stats = meta.Stats
	return tr, nil
}

func (s *Store) resolve(runID string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("empty run id")
	}
	dir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(dir); err == nil {
		return dir, nil
	}
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return "", err
	}
	var match string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), runID) {
			if match != "" {
				return "", fmt.Errorf("run id %q is ambiguous", runID)
			}
			match = e.Name()
		}
	}
	if match == "" {
		return "", fmt.Errorf("run %s: %w", runID, os.ErrNotExist)
	}
	return filepath.Join(s.baseDir, match), nil
}
