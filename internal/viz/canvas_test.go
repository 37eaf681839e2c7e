package viz

import (
	"strings"
	"testing"
)

func TestCanvasSetAndLit(t *testing.T) {
	c := NewCanvas(4, 2)
	if w, h := c.Pixels(); w != 8 || h != 8 {
		t.Fatalf("Pixels = %d,%d", w, h)
	}
	c.SetInk(3, 5, 7)
	if !c.Lit(3, 5) {
		t.Error("pixel (3,5) not lit")
	}
	if c.Lit(2, 5) {
		t.Error("neighbor pixel lit")
	}
	if c.Ink[1][1] != 7 {
		t.Errorf("ink = %d, want 7", c.Ink[1][1])
	}

	// out of range is ignored
	c.Set(-1, 0)
	c.Set(100, 100)
	if c.Lit(-1, 0) || c.Lit(100, 100) {
		t.Error("out-of-range pixels reported lit")
	}

	c.Clear()
	if c.Lit(3, 5) {
		t.Error("Clear left pixel lit")
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 19, 19, 1)
	for i := 0; i < 20; i++ {
		if !c.Lit(i, i) {
			t.Errorf("diagonal pixel %d not lit", i)
		}
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(3, 2)
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if l != "⠀⠀⠀" {
			t.Errorf("blank row = %q", l)
		}
	}
}
