package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/landau/internal/config"
	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/lattice"
)

const (
	metadataFile    = "metadata.json"
	diagnosticsFile = "diagnostics.csv"
	fieldFile       = "field.csv"
)

var diagnosticsHeader = []string{
	"step", "time", "dissonance", "coherence",
	"amp_min", "amp_max", "amp_mean", "amp_count",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Size      int                `json:"size"`
	Steps     int                `json:"steps"`
	Time      float64            `json:"time"`
	Dt        float64            `json:"dt"`
	Scheme    string             `json:"scheme"`
	Mode      string             `json:"mode"`
	Config    *config.Config     `json:"config,omitempty"`
	Final     dynamo.Diagnostics `json:"final"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a run directory containing the metadata, the per-step
// diagnostics and, when field is non-nil, the final lattice. The run ID
// is derived from meta.Name and the current time unless meta.ID is set.
func (s *Store) Save(meta RunMetadata, series []dynamo.Diagnostics, field *lattice.Field) (string, error) {
	now := time.Now()
	if meta.Name == "" {
		meta.Name = "landau"
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Name, now.UnixNano())
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = now
	}
	if field != nil {
		meta.Size = field.N
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, diagnosticsFile), series); err != nil {
		return "", err
	}
	if field != nil {
		if err := writeField(filepath.Join(runDir, fieldFile), field); err != nil {
			return "", err
		}
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeries(path string, series []dynamo.Diagnostics) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(diagnosticsHeader); err != nil {
		return err
	}
	for _, d := range series {
		row := []string{
			strconv.Itoa(d.Step),
			formatFloat(d.Time),
			formatFloat(d.Dissonance),
			formatFloat(d.Coherence),
			formatFloat(d.Amplitude.Min),
			formatFloat(d.Amplitude.Max),
			formatFloat(d.Amplitude.Mean),
			strconv.Itoa(d.Amplitude.Count),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeField(path string, field *lattice.Field) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"row", "col", "re", "im"}); err != nil {
		return err
	}
	for i := 0; i < field.N; i++ {
		for j := 0; j < field.N; j++ {
			re, im := field.At(i, j)
			row := []string{strconv.Itoa(i), strconv.Itoa(j), formatFloat(re), formatFloat(im)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns the metadata of every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
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

// LoadSeries reads the per-step diagnostics of a run. Histograms are not
// persisted and come back empty.
func (s *Store) LoadSeries(runID string) ([]dynamo.Diagnostics, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, diagnosticsFile))
	if err != nil {
		return nil, err
	}

	series := make([]dynamo.Diagnostics, 0, len(records))
	for _, rec := range records {
		if len(rec) != len(diagnosticsHeader) {
			continue
		}
		var d dynamo.Diagnostics
		var perr error
		parseInt := func(s string) int {
			v, err := strconv.Atoi(s)
			if err != nil && perr == nil {
				perr = err
			}
			return v
		}
		parse := func(s string) float64 {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil && perr == nil {
				perr = err
			}
			return v
		}
		d.Step = parseInt(rec[0])
		d.Time = parse(rec[1])
		d.Dissonance = parse(rec[2])
		d.Coherence = parse(rec[3])
		d.Amplitude.Min = parse(rec[4])
		d.Amplitude.Max = parse(rec[5])
		d.Amplitude.Mean = parse(rec[6])
		d.Amplitude.Count = parseInt(rec[7])
		if perr != nil {
			return nil, fmt.Errorf("run %s: %w", runID, perr)
		}
		series = append(series, d)
	}
	return series, nil
}

// LoadField reads the final lattice of a run.
func (s *Store) LoadField(runID string) (*lattice.Field, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	records, err := readCSV(filepath.Join(s.baseDir, runID, fieldFile))
	if err != nil {
		return nil, err
	}

	f, err := lattice.NewField(meta.Size)
	if err != nil {
		return nil, err
	}
	if len(records) != f.Cells() {
		return nil, fmt.Errorf("run %s: %w: %d cells for N=%d", runID, dynamo.ErrDimensionMismatch, len(records), meta.Size)
	}
	for _, rec := range records {
		if len(rec) != 4 {
			return nil, fmt.Errorf("run %s: malformed field row %v", runID, rec)
		}
		i, err1 := strconv.Atoi(rec[0])
		j, err2 := strconv.Atoi(rec[1])
		re, err3 := strconv.ParseFloat(rec[2], 64)
		im, err4 := strconv.ParseFloat(rec[3], 64)
		for _, e := range []error{err1, err2, err3, err4} {
			if e != nil {
				return nil, fmt.Errorf("run %s: %w", runID, e)
			}
		}
		f.Set(i, j, re, im)
	}
	return f, nil
}

// readCSV returns every record after the header.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
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
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}
