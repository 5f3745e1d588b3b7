package storage

import (
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/san-kum/pbpksim/internal/pbpk"
)

type ExportData struct {
	Model        string                 `json:"model"`
	Subject      string                 `json:"subject"`
	Solver       string                 `json:"solver"`
	Dt           float64                `json:"dt"`
	Time         float64                `json:"time"`
	Steps        int                    `json:"steps"`
	Compartments []string               `json:"compartments"`
	Times        []float64              `json:"times"`
	States       [][]float64            `json:"states"`
	Warnings     []pbpk.CapacityWarning `json:"warnings,omitempty"`
	Metrics      map[string]float64     `json:"metrics"`
}

// NewExport assembles the export form of a stored or fresh run.
func NewExport(meta RunMetadata, tr *pbpk.Trajectory) ExportData {
	data := ExportData{
		Model:        meta.Model,
		Subject:      meta.Subject,
		Solver:       tr.Solver.String(),
		Dt:           meta.Dt,
		Time:         meta.Time,
		Steps:        tr.Stats.Steps,
		Compartments: tr.Compartments,
		Times:        tr.Times,
		States:       make([][]float64, len(tr.States)),
		Warnings:     tr.Warnings,
		Metrics:      meta.Metrics,
	}
	for i, s := range tr.States {
		data.States[i] = s
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(file, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func ExportJSONStdout(data ExportData) error {
	return WriteJSON(os.Stdout, data)
}
