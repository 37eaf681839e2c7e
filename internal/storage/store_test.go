package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/portrait/internal/phase"
)

func samplePoints() []phase.OrbitPoint {
	return []phase.OrbitPoint{
		{Chart: phase.FiniteR2, U: 0.1, V: 0, Sphere: [3]float64{0.0995, 0, 0.995}, Dir: 1, Color: phase.ColorUnstable},
		{Chart: phase.FiniteR2, U: 0.2, V: 1e-9, Sphere: [3]float64{0.196, 1e-9, 0.98}, Dir: 1, Color: phase.ColorUnstable, Dashes: true},
		{Chart: phase.V1, U: -0.3, V: 0.25, Sphere: [3]float64{-0.94, 0.28, 0.23}, Dir: -1, Color: phase.ColorStable},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	want := samplePoints()
	runID, err := st.Save(RunMetadata{Name: "saddle", Kind: "sep", P: "x", Q: "-y", WeightP: 1, WeightQ: 1, Integrator: "rk78"}, want)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Name != "saddle" || meta.Kind != "sep" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Points != len(want) {
		t.Errorf("expected %d points in metadata, got %d", len(want), meta.Points)
	}

	got, err := st.LoadPoints(runID)
	if err != nil {
		t.Fatalf("load points failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	ts := time.Unix(1700000000, 0)
	for _, kind := range []string{"orbit", "orbit"} {
		if _, err := st.Save(RunMetadata{Name: "center", Kind: kind, Timestamp: ts}, nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID == runs[1].ID {
		t.Errorf("runs saved in the same second share id %q", runs[0].ID)
	}
}

func TestListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List on a missing dir = %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Name: "test", Kind: "gcf"}, samplePoints())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{"metadata.json", "points.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestLoadPointsRejectsBadRow(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	runDir := filepath.Join(tmpDir, "broken")
	if err := os.MkdirAll(runDir, 0755); err != nil {
		t.Fatal(err)
	}
	csv := "chart,u,v,sx,sy,sz,dir,color,dashes\nW7,0,0,0,0,1,1,0,false\n"
	if err := os.WriteFile(filepath.Join(runDir, "points.csv"), []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadPoints("broken"); err == nil {
		t.Error("expected an error for an unknown chart")
	}
}

func TestTablePath(t *testing.T) {
	st := New("/data/runs")
	if got, want := st.TablePath(3), filepath.Join("/data/runs", "lyap", "table_3.csv"); got != want {
		t.Errorf("TablePath(3) = %q, want %q", got, want)
	}
}

func TestTables(t *testing.T) {
	st := New(t.TempDir())
	if idx, err := st.Tables(); err != nil || len(idx) != 0 {
		t.Fatalf("Tables on empty store = %v, %v", idx, err)
	}

	dir := filepath.Dir(st.TablePath(0))
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"table_12.csv", "table_3.csv", "table_x.csv", "table_4.csv.bak", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	idx, err := st.Tables()
	if err != nil {
		t.Fatal(err)
	}
	if len(idx) != 2 || idx[0] != 3 || idx[1] != 12 {
		t.Errorf("Tables() = %v, want [3 12]", idx)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("table directory listed as a run: %v", runs)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, RunMetadata{Name: "saddle"}, samplePoints()); err != nil {
		t.Fatal(err)
	}
	var data struct {
		Meta   RunMetadata `json:"meta"`
		Points []struct {
			Chart string `json:"chart"`
		} `json:"points"`
	}
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if data.Meta.Name != "saddle" || len(data.Points) != 3 || data.Points[2].Chart != "V1" {
		t.Errorf("unexpected export %+v", data)
	}
}
