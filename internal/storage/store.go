package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/shootbench/internal/bench"
)

const (
	metadataFile  = "metadata.json"
	durationsFile = "durations.csv"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one saved benchmark run.
type RunMetadata struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Trials    int            `json:"trials"`
	Nodes     int            `json:"nodes"`
	MaxIter   int            `json:"max_iter"`
	Results   []bench.Result `json:"results"`
}

// Column is the durations.csv header of a result.
func Column(r bench.Result) string {
	return r.Implementation + "/" + r.Operation
}

// Save writes the metadata and the per-trial durations of a run, one
// column per implementation and operation.
func (s *Store) Save(trials, nodes, maxIter int, results []bench.Result) (string, error) {
	runID := uuid.New().String()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: s.now(),
		Trials:    trials,
		Nodes:     nodes,
		MaxIter:   maxIter,
		Results:   results,
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

	csvFile, err := os.Create(filepath.Join(runDir, durationsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	header := []string{"trial"}
	rows := 0
	for _, r := range results {
		header = append(header, Column(r))
		rows = max(rows, len(r.Durations))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := 0; i < rows; i++ {
		row := []string{strconv.Itoa(i)}
		for _, r := range results {
			if i < len(r.Durations) {
				row = append(row, strconv.FormatFloat(float64(r.Durations[i])/float64(time.Millisecond), 'f', 6, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns every readable run, oldest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// Durations are the per-trial times of a run in milliseconds, keyed by
// column, with the columns in file order.
type Durations struct {
	Columns []string
	Values  map[string][]float64
}

func (s *Store) LoadDurations(runID string) (*Durations, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, durationsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	d := &Durations{Values: make(map[string][]float64)}
	if len(records) == 0 {
		return d, nil
	}
	d.Columns = records[0][1:]

	for _, record := range records[1:] {
		for j := 1; j < len(record) && j <= len(d.Columns); j++ {
			if record[j] == "" {
				continue
			}
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: column %s: %w", runID, d.Columns[j-1], err)
			}
			col := d.Columns[j-1]
			d.Values[col] = append(d.Values[col], val)
		}
	}
	return d, nil
}

type exportData struct {
	RunMetadata
	Durations map[string][]float64 `json:"durations_ms"`
}

// Export writes a run, metadata and durations, as indented JSON.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	d, err := s.LoadDurations(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exportData{RunMetadata: *meta, Durations: d.Values})
}
