package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	RunMetadata
	Times    []float64   `json:"times"`
	States   [][]float64 `json:"states"`
	Controls []float64   `json:"controls"`
	Rewards  []float64   `json:"rewards"`
}

// ExportJSON writes a run's metadata and trajectory as a single document.
func ExportJSON(w io.Writer, meta *RunMetadata, tr *Trajectory) error {
	data := ExportData{
		RunMetadata: *meta,
		Times:       tr.Times,
		States:      tr.States,
		Controls:    tr.Controls,
		Rewards:     tr.Rewards,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Export loads a stored run and writes it to w as JSON.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	tr, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	return ExportJSON(w, meta, tr)
}
