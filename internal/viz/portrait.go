package viz

import (
	"math"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/portrait/internal/phase"
)

// DiscXY projects a sphere point orthogonally onto the Poincaré disc. The
// lower hemisphere is folded onto the upper one through the antipode.
func DiscXY(p [3]float64) (float64, float64) {
	if p[2] < 0 {
		return -p[0], -p[1]
	}
	return p[0], p[1]
}

// frameInk marks the disc boundary; curve colors are stored shifted by one.
const frameInk = 0

func ink(c phase.Color) int { return int(c) + 1 }

// Portrait draws orbit points on the Poincaré disc inscribed in a canvas.
// Points are joined to their predecessor when Dashes is set.
type Portrait struct {
	mu      sync.Mutex
	canvas  *Canvas
	last    [2]int
	hasLast bool
	counts  map[phase.Color]int
	total   int
}

func NewPortrait(c *Canvas) *Portrait {
	pt := &Portrait{canvas: c, counts: make(map[phase.Color]int)}
	pt.frame()
	return pt
}

func (pt *Portrait) frame() {
	cx, cy, r := pt.geometry()
	pt.canvas.DrawCircle(cx, cy, r, frameInk)
}

func (pt *Portrait) geometry() (cx, cy int, r float64) {
	w, h := pt.canvas.Pixels()
	cx, cy = w/2, h/2
	r = math.Min(float64(w), float64(h))/2 - 1
	return cx, cy, r
}

// Pixel is the canvas sub-pixel of a sphere point.
func (pt *Portrait) Pixel(p [3]float64) (int, int) {
	cx, cy, r := pt.geometry()
	x, y := DiscXY(p)
	return cx + int(math.Round(x*r)), cy - int(math.Round(y*r))
}

func (pt *Portrait) Draw(points []phase.OrbitPoint) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	for _, p := range points {
		if !p.IsValid() {
			continue
		}
		x, y := pt.Pixel(p.Sphere)
		if p.Dashes && pt.hasLast {
			pt.canvas.DrawLine(pt.last[0], pt.last[1], x, y, ink(p.Color))
		} else {
			pt.canvas.SetInk(x, y, ink(p.Color))
		}
		pt.last, pt.hasLast = [2]int{x, y}, true
		pt.counts[p.Color]++
		pt.total++
	}
}

// Break starts a new curve: the next point is not joined to the last one.
func (pt *Portrait) Break() {
	pt.mu.Lock()
	pt.hasLast = false
	pt.mu.Unlock()
}

func (pt *Portrait) Reset() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.canvas.Clear()
	pt.hasLast = false
	pt.counts = make(map[phase.Color]int)
	pt.total = 0
	pt.frame()
}

// Count returns the number of points drawn with color c.
func (pt *Portrait) Count(c phase.Color) int {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.counts[c]
}

func (pt *Portrait) Total() int {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.total
}

func (pt *Portrait) Canvas() *Canvas { return pt.canvas }

// InkColor is the theme color of a canvas ink value.
func (pt *Portrait) InkColor(t Theme, i int) lipgloss.Color {
	if i == frameInk {
		return t.Muted
	}
	return t.Hex(phase.Color(i - 1))
}

// Render returns the canvas painted with theme t.
func (pt *Portrait) Render(t Theme) string {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.canvas.Render(func(i int, s string) string {
		return lipgloss.NewStyle().Foreground(pt.InkColor(t, i)).Render(s)
	})
}

func (pt *Portrait) String() string {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.canvas.String()
}
