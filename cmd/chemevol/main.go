package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/chemevol/internal/chem"
	"github.com/san-kum/chemevol/internal/config"
	"github.com/san-kum/chemevol/internal/evolve"
	"github.com/san-kum/chemevol/internal/experiment"
	"github.com/san-kum/chemevol/internal/export"
	"github.com/san-kum/chemevol/internal/logging"
	"github.com/san-kum/chemevol/internal/networks"
	"github.com/san-kum/chemevol/internal/optim"
	"github.com/san-kum/chemevol/internal/storage"
	"github.com/san-kum/chemevol/internal/tui"
)

var (
	dataDir    string
	durationYr float64
	initStepYr float64
	tolerance  float64
	wallSec    float64
	verbose    bool
	logFormat  string
	configFile string
	preset     string

	svgOut string

	fitRate   int
	fitMin    float64
	fitMax    float64
	fitPoints int
	fitTarget float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chemevol",
		Short: "stiff chemical-kinetics evolution",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".chemevol", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [network]",
		Short: "evolve a network and store the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runEvolution,
	}
	addRunFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [network]",
		Short: "evolve a network with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored abundances",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render stored abundances as an SVG chart",
		Args:  cobra.ExactArgs(1),
		RunE:  svgRun,
	}
	svgCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default <run_id>.svg)")

	fitCmd := &cobra.Command{
		Use:   "fit [network]",
		Short: "grid-fit a rate multiplier to a target electron abundance",
		Args:  cobra.ExactArgs(1),
		RunE:  fitRun,
	}
	addRunFlags(fitCmd)
	fitCmd.Flags().IntVar(&fitRate, "rate-index", 0, "rate-table entry to scale")
	fitCmd.Flags().Float64Var(&fitMin, "scale-min", 0.01, "smallest multiplier")
	fitCmd.Flags().Float64Var(&fitMax, "scale-max", 100, "largest multiplier")
	fitCmd.Flags().IntVar(&fitPoints, "points", 9, "grid points (log-spaced)")
	fitCmd.Flags().Float64Var(&fitTarget, "target", 0, "target electron abundance (required)")

	networksCmd := &cobra.Command{
		Use:   "networks",
		Short: "list built-in networks",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range networks.List() {
				m, err := networks.Get(name)
				if err != nil {
					return err
				}
				fmt.Printf("  %-12s %s\n", name, m.Description)
			}
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [network]",
		Short: "list presets for a network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if names == nil {
				return fmt.Errorf("no presets for network %s", args[0])
			}
			for _, p := range names {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, svgCmd, fitCmd, networksCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&durationYr, "time", config.DefaultDurationYr, "evolution time (yr)")
	cmd.Flags().Float64Var(&initStepYr, "dt", config.DefaultInitStepYr, "initial trial step (yr)")
	cmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "relative error tolerance")
	cmd.Flags().Float64Var(&wallSec, "wall", config.DefaultWallSec, "wall-clock budget (s)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "verbose progress output")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig merges preset, config file, and flags; flags win when
// explicitly set.
func resolveConfig(cmd *cobra.Command, network string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Network = network

	if preset != "" {
		p := config.GetPreset(network, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)",
				preset, config.ListPresets(network))
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		*cfg = *loaded
		cfg.Network = network
	}

	if cmd.Flags().Changed("time") {
		cfg.DurationYr = durationYr
	}
	if cmd.Flags().Changed("dt") {
		cfg.InitStepYr = initStepYr
	}
	if cmd.Flags().Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if cmd.Flags().Changed("wall") {
		cfg.WallSec = wallSec
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = logFormat
	}

	return cfg, cfg.Validate()
}

func runEvolution(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	model, err := networks.Get(cfg.Network)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	log := logging.New(logging.Config{Verbose: cfg.Verbose, Format: cfg.LogFormat})
	rec := evolve.NewRecorder()

	numDen := model.Initial.Clone()
	ev := evolve.New(model.Net, model.Rates, numDen, model.AbnDen,
		evolve.WithLogger(log),
		evolve.WithObserver(rec),
		evolve.WithWallBudget(time.Duration(cfg.WallSec)*time.Second),
	)

	dtTry := cfg.InitStepYr * chem.OneYear
	start := time.Now()
	status, err := ev.Evolve(context.Background(), cfg.DurationYr*chem.OneYear, &dtTry, cfg.Tolerance)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	stats := ev.Stats()
	runID, err := st.Save(storage.RunMetadata{
		Network:    cfg.Network,
		DurationYr: cfg.DurationYr,
		Tolerance:  cfg.Tolerance,
		Status:     int(status),
		Species:    model.SpeciesNames(),
		Metrics: map[string]float64{
			"steps":     float64(stats.Steps),
			"fallbacks": float64(stats.Fallbacks),
			"clamps":    float64(stats.Clamps),
			"abn_e":     ev.ElectronAbundance(),
			"final_yr":  ev.Time() / chem.OneYear,
		},
	}, rec.Times, rec.States)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v (status %d)\n", elapsed, status)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d, fallbacks: %d, clamps: %d\n",
		stats.Steps, stats.Fallbacks, stats.Clamps)
	fmt.Printf("final electron abundance: %e\n", ev.ElectronAbundance())

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	model, err := networks.Get(cfg.Network)
	if err != nil {
		return err
	}
	return tui.Run(model, cfg)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNETWORK\tTIME\tDURATION\tTOL\tSTATUS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2e yr\t%.0e\t%d\n",
			run.ID,
			run.Network,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.DurationYr,
			run.Tolerance,
			run.Status,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("network: %s\n", meta.Network)
	fmt.Printf("samples: %d\n\n", len(states))

	numVars := len(states[0])
	maxPlots := 6
	if numVars > maxPlots {
		numVars = maxPlots
	}

	for varIdx := 0; varIdx < numVars; varIdx++ {
		data := make([]float64, len(states))
		for i := range states {
			if varIdx < len(states[i]) {
				data[i] = math.Log10(states[i][varIdx] + 1e-30)
			}
		}

		caption := fmt.Sprintf("x%d", varIdx)
		if varIdx < len(meta.Species) {
			caption = meta.Species[varIdx]
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("log10 n(%s) vs step", caption)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	fmt.Printf("time span: %.3e .. %.3e yr\n", times[0], times[len(times)-1])
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func svgRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	svg := export.TrajectorySVG(times, states, meta.Species, 960, 540)
	if svg == "" {
		return fmt.Errorf("not enough data to render")
	}

	out := svgOut
	if out == "" {
		out = runID + ".svg"
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func fitRun(cmd *cobra.Command, args []string) error {
	if fitTarget <= 0 {
		return fmt.Errorf("--target must be positive")
	}
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	gs := optim.NewGridSearch([]int{fitRate},
		[][]float64{optim.LogSpace(fitMin, fitMax, fitPoints)})

	build := func(scales map[int]float64) (*experiment.Experiment, error) {
		return experiment.New(experiment.Config{
			Network:    cfg.Network,
			DurationYr: cfg.DurationYr,
			InitStepYr: cfg.InitStepYr,
			Tolerance:  cfg.Tolerance,
			RateScale:  scales,
			TargetAbnE: fitTarget,
		}), nil
	}

	scales, residual, err := gs.Search(context.Background(), build, "abn_e_err")
	if err != nil {
		return err
	}

	fmt.Printf("best multiplier for rate %d: %g\n", fitRate, scales[fitRate])
	fmt.Printf("|abn_e - target|: %e\n", residual)
	return nil
}
