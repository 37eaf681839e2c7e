package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/portrait/internal/phase"
)

// WritePoints writes points as CSV with a header row.
func WritePoints(w io.Writer, points []phase.OrbitPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			p.Chart.String(),
			formatFloat(p.U),
			formatFloat(p.V),
			formatFloat(p.Sphere[0]),
			formatFloat(p.Sphere[1]),
			formatFloat(p.Sphere[2]),
			strconv.Itoa(p.Dir),
			strconv.Itoa(int(p.Color)),
			strconv.FormatBool(p.Dashes),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type ExportData struct {
	Meta   RunMetadata   `json:"meta"`
	Points []pointRecord `json:"points"`
}

type pointRecord struct {
	Chart  string     `json:"chart"`
	U      float64    `json:"u"`
	V      float64    `json:"v"`
	Sphere [3]float64 `json:"sphere"`
	Dir    int        `json:"dir"`
	Color  int        `json:"color"`
	Dashes bool       `json:"dashes"`
}

// ExportJSON writes a run as one indented JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, points []phase.OrbitPoint) error {
	data := ExportData{Meta: meta, Points: make([]pointRecord, len(points))}
	for i, p := range points {
		data.Points[i] = pointRecord{
			Chart:  p.Chart.String(),
			U:      p.U,
			V:      p.V,
			Sphere: p.Sphere,
			Dir:    p.Dir,
			Color:  int(p.Color),
			Dashes: p.Dashes,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
