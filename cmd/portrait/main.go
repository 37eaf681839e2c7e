package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/portrait/internal/config"
	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/storage"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	integrator string
	steps      int
	noSave     bool

	// sep
	workers int

	// orbit
	chartName string
	startU    float64
	startV    float64
	direction int

	// gcf
	precision  int
	curvePts   int
	singleTask string

	// export
	outFile string
	size    int
	theme   string
	raster  bool
)

// main registers the commands and runs the root command. It exits with
// status 1 when the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "portrait",
		Short:        "phase portraits of planar polynomial vector fields",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".portrait", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	fieldFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&configFile, "config", "", "field description file (yaml)")
		cmd.Flags().StringVar(&preset, "preset", "", "use a preset field")
		cmd.Flags().StringVar(&integrator, "integrator", "", "override the integrator (rk78, rk45)")
		cmd.Flags().IntVar(&steps, "steps", 0, "points per curve (default: max_points)")
		cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	}

	sepCmd := &cobra.Command{
		Use:   "sep [index...]",
		Short: "trace separatrices",
		RunE:  traceSeparatrices,
	}
	fieldFlags(sepCmd)
	sepCmd.Flags().IntVar(&workers, "workers", 0, "separatrices traced at once (default: one per CPU)")

	orbitCmd := &cobra.Command{
		Use:   "orbit",
		Short: "trace orbits through given points",
		RunE:  traceOrbits,
	}
	fieldFlags(orbitCmd)
	orbitCmd.Flags().StringVar(&chartName, "chart", "R2", "chart of the start point")
	orbitCmd.Flags().Float64Var(&startU, "u", 0, "first chart coordinate")
	orbitCmd.Flags().Float64Var(&startV, "v", 0, "second chart coordinate")
	orbitCmd.Flags().IntVar(&direction, "dir", 1, "1 forward, -1 backward in time")

	lcCmd := &cobra.Command{
		Use:   "lc",
		Short: "search for limit cycles along a section",
		RunE:  searchLimitCycles,
	}
	fieldFlags(lcCmd)

	gcfCmd := &cobra.Command{
		Use:   "gcf",
		Short: "trace the curve of singular points removed as a common factor",
		RunE:  traceCurve,
	}
	fieldFlags(gcfCmd)
	gcfCmd.Flags().IntVar(&precision, "precision", 0, "grid subdivisions per chart")
	gcfCmd.Flags().IntVar(&curvePts, "points", 0, "points per curve branch")
	gcfCmd.Flags().StringVar(&singleTask, "task", "", "run a single task (e.g. R2, U1, Cyl2)")

	liveCmd := &cobra.Command{
		Use:   "live [sep|orbit|lc|gcf]",
		Short: "trace with live terminal visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	fieldFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "classic", "color theme")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "draw a stored run on the Poincaré disc",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a stored run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default: <run_id>.svg)")
	exportSVGCmd.Flags().IntVar(&size, "size", 600, "image size in pixels")
	exportSVGCmd.Flags().StringVar(&theme, "theme", "classic", "color theme")
	exportSVGCmd.Flags().BoolVar(&raster, "raster", false, "export the Braille raster instead of paths")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				c := config.GetPreset(name)
				fmt.Printf("  %-16s x' = %s, y' = %s\n", name, c.P, c.Q)
			}
			return nil
		},
	}

	rootCmd.AddCommand(sepCmd, orbitCmd, lcCmd, gcfCmd, liveCmd, listCmd, plotCmd, exportSVGCmd, exportJSONCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadField resolves --config and --preset; the file wins when both are
// given.
func loadField() (*config.Config, *phase.Results, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	default:
		cfg = config.DefaultConfig()
	}
	if integrator != "" {
		cfg.Integrator = integrator
	}

	res, err := cfg.Results()
	if err != nil {
		return nil, nil, err
	}
	res.Logger = newLogger()
	if steps > 0 {
		res.Integration.MaxPoints = steps
	}
	return cfg, res, nil
}

// save stores a finished run unless --no-save was given.
func save(cfg *config.Config, kind string, state phase.SessionState, runErr error, points []phase.OrbitPoint) error {
	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta := storage.RunMetadata{
		Name:       cfg.Name,
		Kind:       kind,
		P:          cfg.P,
		Q:          cfg.Q,
		WeightP:    cfg.WeightP,
		WeightQ:    cfg.WeightQ,
		Integrator: cfg.Integrator,
		Tolerance:  cfg.Integration.Tolerance,
		State:      state.String(),
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}
	runID, err := st.Save(meta, points)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}
