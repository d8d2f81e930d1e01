package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/fixedgrid/internal/dynamo"
	"github.com/san-kum/fixedgrid/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	controlsFile = "controls.csv"
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

type RunMetadata struct {
	ID            string             `json:"id"`
	UUID          string             `json:"uuid"`
	Model         string             `json:"model"`
	Timestamp     time.Time          `json:"timestamp"`
	Scheme        string             `json:"scheme"`
	Perturb       bool               `json:"perturb"`
	StepSize      float64            `json:"step_size"`
	Interpolation string             `json:"interpolation"`
	T0            float64            `json:"t0"`
	T1            float64            `json:"t1"`
	Controller    string             `json:"controller"`
	Steps         int                `json:"steps"`
	Evaluations   int                `json:"evaluations"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Save writes a run directory and returns its ID. The ID, UUID and
// timestamp in meta are filled in here. metadata.json is written last, and a
// failed save removes the directory, so List only sees complete runs.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	now := s.now()
	runID, runDir, err := s.newRunDir(meta.Model, now)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.UUID = uuid.NewString()
	meta.Timestamp = now
	meta.Steps = result.StepsTaken
	meta.Evaluations = result.Evaluations
	meta.Metrics = result.Metrics

	if err := writeRun(runDir, meta, result); err != nil {
		if rmErr := os.RemoveAll(runDir); rmErr != nil {
			return "", errors.Join(err, rmErr)
		}
		return "", fmt.Errorf("run %s: %w", runID, err)
	}
	return runID, nil
}

func writeRun(runDir string, meta RunMetadata, result *sim.Result) error {
	if err := writeFile(filepath.Join(runDir, statesFile), func(w io.Writer) error {
		return WriteStatesCSV(w, result.Times, result.States)
	}); err != nil {
		return err
	}

	if len(result.Controls) > 0 {
		gridTimes := result.GridTimes
		if len(gridTimes) > len(result.Controls) {
			gridTimes = gridTimes[:len(result.Controls)]
		}
		controls := make([]dynamo.State, len(result.Controls))
		for i, u := range result.Controls {
			controls[i] = dynamo.State(u)
		}
		if err := writeFile(filepath.Join(runDir, controlsFile), func(w io.Writer) error {
			return writeCSV(w, "u", gridTimes, controls)
		}); err != nil {
			return err
		}
	}

	return writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
}

// newRunDir claims <model>_<unix>_<n> for the first free n.
func (s *Store) newRunDir(model string, now time.Time) (string, string, error) {
	for n := 0; ; n++ {
		runID := fmt.Sprintf("%s_%d_%d", model, now.Unix(), n)
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", err
		}
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteStatesCSV writes a time,x0,x1,... table.
func WriteStatesCSV(w io.Writer, times []float64, states []dynamo.State) error {
	return writeCSV(w, "x", times, states)
}

func writeCSV(w io.Writer, prefix string, times []float64, rows []dynamo.State) error {
	if len(times) != len(rows) {
		return fmt.Errorf("%d times for %d rows: %w", len(times), len(rows), dynamo.ErrDimensionMismatch)
	}
	cw := csv.NewWriter(w)

	header := []string{"time"}
	if len(rows) > 0 {
		for i := range rows[0] {
			header = append(header, fmt.Sprintf("%s%d", prefix, i))
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, row := range rows {
		record := make([]string, 0, len(row)+1)
		record = append(record, strconv.FormatFloat(times[i], 'g', -1, 64))
		for _, val := range row {
			record = append(record, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
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

func (s *Store) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	return readCSV(filepath.Join(s.baseDir, runID, statesFile))
}

// LoadControls returns the per-step inputs and the grid times they were
// computed at. A run without control input has none.
func (s *Store) LoadControls(runID string) ([]dynamo.Control, []float64, error) {
	rows, times, err := readCSV(filepath.Join(s.baseDir, runID, controlsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	controls := make([]dynamo.Control, len(rows))
	for i, r := range rows {
		controls[i] = dynamo.Control(r)
	}
	return controls, times, nil
}

func readCSV(path string) ([]dynamo.State, []float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return []dynamo.State{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([]dynamo.State, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), i+1, err)
		}

		state := make(dynamo.State, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), i+1, err)
			}
			state = append(state, val)
		}
		times = append(times, t)
		states = append(states, state)
	}

	return states, times, nil
}
