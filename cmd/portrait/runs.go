package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/portrait/internal/export"
	"github.com/san-kum/portrait/internal/storage"
	"github.com/san-kum/portrait/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	tables, err := st.Tables()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tKIND\tTIME\tPOINTS\tINTEG\tWEIGHTS\tSTATE")

		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t(%d,%d)\t%s\n",
				run.ID,
				run.Name,
				run.Kind,
				run.Timestamp.Format("2006-01-02 15:04:05"),
				run.Points,
				run.Integrator,
				run.WeightP, run.WeightQ,
				run.State,
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(tables) > 0 {
		fmt.Println("\nPoincaré-Lyapunov tables:")
		for _, i := range tables {
			fmt.Printf("  %d\t%s\n", i, st.TablePath(i))
		}
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	points, err := st.LoadPoints(runID)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("field: x' = %s, y' = %s\n", meta.P, meta.Q)
	fmt.Printf("points: %d\n\n", len(points))

	pt := viz.NewCanvasPortrait()
	pt.Draw(points)
	fmt.Print(pt.Render(viz.CurrentTheme))
	fmt.Println()

	// height above the equator: 0 at infinity, 1 at the origin
	data := make([]float64, len(points))
	for i, p := range points {
		data[i] = p.Sphere[2]
		if data[i] < 0 {
			data[i] = -data[i]
		}
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("sphere Z (0 = infinity)"),
	)
	fmt.Println(graph)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	points, err := st.LoadPoints(runID)
	if err != nil {
		return err
	}

	path := outFile
	if path == "" {
		path = runID + ".svg"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	t := viz.GetTheme(theme)
	if raster {
		pt := viz.NewCanvasPortrait()
		pt.Draw(points)
		_, err = fmt.Fprint(f, export.CanvasToSVG(pt.Canvas(), float64(size)/120, func(ink int) string {
			return string(pt.InkColor(t, ink))
		}))
	} else {
		err = export.PortraitToSVG(f, points, export.Options{Size: size, Theme: t})
	}
	if err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	points, err := st.LoadPoints(runID)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, points)
}
