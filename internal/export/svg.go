// Package export writes portraits as standalone SVG documents.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/viz"
)

type Options struct {
	Size  int // width and height in pixels
	Theme viz.Theme
}

func DefaultOptions() Options {
	return Options{Size: 600, Theme: viz.ThemeClassic}
}

// PortraitToSVG draws points on the Poincaré disc. Consecutive points are
// joined while Dashes is set; a color change starts a new path at the
// previous point so curves stay connected.
func PortraitToSVG(w io.Writer, points []phase.OrbitPoint, opts Options) error {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if opts.Theme.Name == "" {
		opts.Theme = DefaultOptions().Theme
	}
	size := float64(opts.Size)
	c := size / 2
	r := size/2 - 4
	t := opts.Theme

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s" stroke-width="1"/>
`, opts.Size, opts.Size, opts.Size, opts.Size, t.Background, c, c, r, t.Muted)

	var path [][2]float64
	var color phase.Color
	flush := func() {
		switch {
		case len(path) > 1:
			d := make([]string, len(path))
			for i, q := range path {
				d[i] = fmt.Sprintf("%.1f,%.1f", q[0], q[1])
			}
			fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M%s"/>
`, t.Hex(color), strings.Join(d, " L"))
		case len(path) == 1:
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="1.5" fill="%s"/>
`, path[0][0], path[0][1], t.Hex(color))
		}
		path = path[:0]
	}

	var prev [2]float64
	for _, p := range points {
		if !p.IsValid() {
			continue
		}
		x, y := viz.DiscXY(p.Sphere)
		cur := [2]float64{c + x*r, c - y*r}
		switch {
		case !p.Dashes || len(path) == 0:
			flush()
			color = p.Color
		case p.Color != color:
			flush()
			color = p.Color
			path = append(path, prev)
		}
		path = append(path, cur)
		prev = cur
	}
	flush()

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// CanvasToSVG converts a Braille canvas to SVG, one dot per lit sub-pixel,
// colored by the cell ink.
func CanvasToSVG(canvas *viz.Canvas, scale float64, paint func(ink int) string) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.Pixels()
	width, height := float64(w)*scale, float64(h)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	dotRadius := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !canvas.Lit(x, y) {
				continue
			}
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, float64(x)*scale+scale/2, float64(y)*scale+scale/2, dotRadius, paint(canvas.Ink[y/4][x/2]))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}
