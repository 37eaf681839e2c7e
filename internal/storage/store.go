// Package storage keeps traced portraits on disk. Every run is a directory
// holding metadata.json and points.csv.
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

	"github.com/san-kum/portrait/internal/phase"
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

type RunMetadata struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Timestamp  time.Time `json:"timestamp"`
	P          string    `json:"p"`
	Q          string    `json:"q"`
	WeightP    int       `json:"weight_p"`
	WeightQ    int       `json:"weight_q"`
	Integrator string    `json:"integrator"`
	Tolerance  float64   `json:"tolerance"`
	State      string    `json:"state"`
	Points     int       `json:"points"`
	Error      string    `json:"error,omitempty"`
}

var header = []string{"chart", "u", "v", "sx", "sy", "sz", "dir", "color", "dashes"}

// Save writes a run and returns its id. Meta.ID and Meta.Points are filled
// in.
func (s *Store) Save(meta RunMetadata, points []phase.OrbitPoint) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	base := fmt.Sprintf("%s_%s_%d", meta.Name, meta.Kind, meta.Timestamp.Unix())
	runID := base
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(s.baseDir, runID)); os.IsNotExist(err) {
			break
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Points = len(points)

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "points.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WritePoints(csvFile, points); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns the stored runs, oldest first.
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadPoints(runID string) ([]phase.OrbitPoint, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "points.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(header)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []phase.OrbitPoint{}, nil
	}

	points := make([]phase.OrbitPoint, 0, len(records)-1)
	for i, rec := range records[1:] {
		p, err := parsePoint(rec)
		if err != nil {
			return nil, fmt.Errorf("points.csv line %d: %w", i+2, err)
		}
		points = append(points, p)
	}
	return points, nil
}

// TablePath is where the Poincaré-Lyapunov cylinder table of the given
// index is kept.
func (s *Store) TablePath(index int) string {
	return filepath.Join(s.baseDir, "lyap", fmt.Sprintf("table_%d.csv", index))
}

// Tables returns the indices of the Poincaré-Lyapunov tables present in the
// store, in increasing order.
func (s *Store) Tables() ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "lyap"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var idx []int
	for _, entry := range entries {
		var i int
		if entry.IsDir() {
			continue
		}
		if _, err := fmt.Sscanf(entry.Name(), "table_%d.csv", &i); err != nil {
			continue
		}
		if entry.Name() != filepath.Base(s.TablePath(i)) {
			continue
		}
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parsePoint(rec []string) (phase.OrbitPoint, error) {
	var p phase.OrbitPoint
	chart, err := phase.ParseChartID(rec[0])
	if err != nil {
		return p, err
	}
	p.Chart = chart

	vals := make([]float64, 5)
	for i := range vals {
		if vals[i], err = strconv.ParseFloat(rec[i+1], 64); err != nil {
			return p, err
		}
	}
	p.U, p.V = vals[0], vals[1]
	p.Sphere = [3]float64{vals[2], vals[3], vals[4]}

	if p.Dir, err = strconv.Atoi(rec[6]); err != nil {
		return p, err
	}
	color, err := strconv.Atoi(rec[7])
	if err != nil {
		return p, err
	}
	p.Color = phase.Color(color)
	if p.Dashes, err = strconv.ParseBool(rec[8]); err != nil {
		return p, err
	}
	return p, nil
}
