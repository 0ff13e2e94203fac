package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var ErrRunNotFound = errors.New("run not found")

var header = []string{"time", "x", "theta", "x_dot", "theta_dot", "u", "reward"}

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
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Preset      string             `json:"preset,omitempty"`
	Params      physics.Params     `json:"params"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	Integrator  string             `json:"integrator"`
	Controller  string             `json:"controller"`
	InitState   []float64          `json:"init_state"`
	TotalReward float64            `json:"total_reward"`
	Metrics     map[string]float64 `json:"metrics"`
	Error       string             `json:"error,omitempty"`
}

// Trajectory is the per-step content of states.csv. Controls[i] is the force
// applied from States[i]; Rewards[i] is the reward on arriving at States[i].
type Trajectory struct {
	Times    []float64
	States   [][]float64
	Controls []float64
	Rewards  []float64
}

// Save writes meta and result under a new run directory and returns the run
// ID. A missing ID is assigned a fresh UUID.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.summarize(result)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteCSV(f, FromResult(result)); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// summarize fills the fields derived from a run result.
func (m *RunMetadata) summarize(result *dynamo.Result) {
	if result == nil {
		return
	}
	m.TotalReward = result.TotalReward()
	if m.Metrics == nil {
		m.Metrics = result.Metrics
	}
	if m.Steps == 0 {
		m.Steps = result.StepsTaken
	}
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

// FromResult flattens a run result into a trajectory.
func FromResult(result *dynamo.Result) *Trajectory {
	tr := &Trajectory{}
	if result == nil {
		return tr
	}
	n := len(result.States)
	tr.Times = make([]float64, n)
	tr.States = make([][]float64, n)
	tr.Controls = make([]float64, n)
	tr.Rewards = make([]float64, n)

	for i, x := range result.States {
		if i < len(result.Times) {
			tr.Times[i] = result.Times[i]
		}
		tr.States[i] = append([]float64(nil), x...)
		if i < len(result.Controls) && len(result.Controls[i]) > 0 {
			tr.Controls[i] = result.Controls[i][0]
		}
		if i > 0 && i-1 < len(result.Rewards) {
			tr.Rewards[i] = result.Rewards[i-1]
		}
	}
	return tr
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func WriteCSV(w io.Writer, tr *Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, x := range tr.States {
		if len(x) != physics.StateDim {
			return fmt.Errorf("%w: row %d has %d components", dynamo.ErrDimensionMismatch, i, len(x))
		}
		row := make([]string, 0, len(header))
		row = append(row, format(tr.Times[i]))
		for _, v := range x {
			row = append(row, format(v))
		}
		row = append(row, format(tr.Controls[i]), format(tr.Rewards[i]))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ReadCSV(r io.Reader) (*Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("states.csv: missing header")
	}
	for i, col := range header {
		if records[0][i] != col {
			return nil, fmt.Errorf("states.csv: column %d is %q, want %q", i, records[0][i], col)
		}
	}

	rows := records[1:]
	tr := &Trajectory{
		Times:    make([]float64, 0, len(rows)),
		States:   make([][]float64, 0, len(rows)),
		Controls: make([]float64, 0, len(rows)),
		Rewards:  make([]float64, 0, len(rows)),
	}
	for i, record := range rows {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("states.csv row %d: %w", i+1, err)
			}
			vals[j] = v
		}
		tr.Times = append(tr.Times, vals[0])
		tr.States = append(tr.States, vals[1:5])
		tr.Controls = append(tr.Controls, vals[5])
		tr.Rewards = append(tr.Rewards, vals[6])
	}
	return tr, nil
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) runDir(runID string) (string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return "", fmt.Errorf("%w: invalid id %q", ErrRunNotFound, runID)
	}
	return filepath.Join(s.baseDir, runID), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dir, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// LoadStates returns the recorded states and their times.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	tr, err := s.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	return tr.States, tr.Times, nil
}
