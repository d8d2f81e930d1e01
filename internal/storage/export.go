package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	RunMetadata
	Times        []float64   `json:"times"`
	States       [][]float64 `json:"states"`
	ControlTimes []float64   `json:"control_times,omitempty"`
	Controls     [][]float64 `json:"controls,omitempty"`
}

// ExportJSON writes a stored run as a single JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return err
	}
	controls, controlTimes, err := s.LoadControls(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata:  *meta,
		Times:        times,
		States:       make([][]float64, len(states)),
		ControlTimes: controlTimes,
		Controls:     make([][]float64, len(controls)),
	}
	for i, st := range states {
		data.States[i] = st
	}
	for i, c := range controls {
		data.Controls[i] = c
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV copies a stored run's state table to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return err
	}
	return WriteStatesCSV(w, times, states)
}
