package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/pbpksim/internal/automation"
	"github.com/san-kum/pbpksim/internal/config"
	"github.com/san-kum/pbpksim/internal/experiment"
	"github.com/san-kum/pbpksim/internal/export"
	"github.com/san-kum/pbpksim/internal/logger"
	"github.com/san-kum/pbpksim/internal/optim"
	"github.com/san-kum/pbpksim/internal/sbml"
	"github.com/san-kum/pbpksim/internal/storage"
	"github.com/san-kum/pbpksim/internal/subject"
	"github.com/san-kum/pbpksim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	logJSON  bool

	configFile string
	preset     string
	model      string
	solver     string
	duration   float64
	dt         float64
	noSave     bool
	live       bool

	output       string
	compartments []string
	plotWidth    int
	plotHeight   int
	svgWidth     int
	svgHeight    int
	frameRate    int
	limit        int

	sweepMetric  string
	mcMetric     string
	searchMetric string

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	steps      int
	mcParams   []string
	cv         float64
	trials     int
	seed       uint64
	grid       []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pbpk",
		Short:         "compartmental radiotracer kinetics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pbpk", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a configured subject",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&live, "live", false, "replay the result in the terminal")
	runCmd.Flags().StringVarP(&output, "svg", "o", "", "also write the curves as svg")

	cohortCmd := &cobra.Command{
		Use:   "cohort <preset>...",
		Short: "simulate several preset subjects concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCohort,
	}
	runFlags(cohortCmd)
	cohortCmd.Flags().IntVar(&limit, "jobs", 4, "concurrent simulations")

	solversCmd := &cobra.Command{
		Use:   "solvers",
		Short: "list solvers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, s := range experiment.NewRegistry().ListSolvers() {
				fmt.Println(s)
			}
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range experiment.NewRegistry().ListModels() {
				fmt.Println(m)
			}
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list presets for a model",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			m := config.DefaultModel
			if len(args) == 1 {
				m = args[0]
			}
			for _, p := range config.ListPresets(m) {
				fmt.Println(p)
			}
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot <run>",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVarP(&compartments, "compartment", "c", nil, "compartments to plot (default all)")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "chart width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "chart height")

	svgCmd := &cobra.Command{
		Use:   "svg <run>",
		Short: "write a stored run as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  svgRun,
	}
	svgCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <run>.svg)")
	svgCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	svgCmd.Flags().IntVar(&svgHeight, "height", 500, "image height")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv <run>",
		Short: "write a stored trajectory as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json <run>",
		Short: "write a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportSBMLCmd := &cobra.Command{
		Use:   "export-sbml",
		Short: "write the configured model as an sbml document",
		Args:  cobra.NoArgs,
		RunE:  exportSBML,
	}
	runFlags(exportSBMLCmd)
	exportSBMLCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	liveCmd := &cobra.Command{
		Use:   "live <run>",
		Short: "replay a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  liveRun,
	}
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	batchCmd := &cobra.Command{
		Use:   "batch <scenario.yaml>",
		Short: "run every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one parameter over a range",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	runFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "k10", "parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&steps, "steps", 5, "number of values")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "auc_blood", "metric to report")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "sample rate constants log-normally and summarise a metric",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	runFlags(monteCarloCmd)
	monteCarloCmd.Flags().StringSliceVar(&mcParams, "param", []string{"k10"}, "parameters to sample")
	monteCarloCmd.Flags().Float64Var(&cv, "cv", 0.2, "coefficient of variation")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	monteCarloCmd.Flags().StringVar(&mcMetric, "metric", "auc_blood", "metric to summarise")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid search for the parameters minimising a metric",
		Args:  cobra.NoArgs,
		RunE:  runSearch,
	}
	runFlags(searchCmd)
	searchCmd.Flags().StringArrayVar(&grid, "grid", nil, "name=v1,v2,... (repeatable)")
	searchCmd.Flags().StringVar(&searchMetric, "metric", "auc_kidney", "metric to minimise")

	rootCmd.AddCommand(runCmd, cohortCmd, solversCmd, modelsCmd, presetsCmd, listCmd,
		plotCmd, svgCmd, exportCSVCmd, exportJSONCmd, exportSBMLCmd, liveCmd,
		batchCmd, sweepCmd, monteCarloCmd, searchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&model, "model", config.DefaultModel, "model")
	cmd.Flags().StringVar(&solver, "solver", "", "solver (see pbpk solvers)")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultTime, "horizon [hr]")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "sampling interval [hr]")
}

func newLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	if logJSON {
		return logger.JSON(os.Stderr, level)
	}
	return logger.Text(os.Stderr, level)
}

// loadConfig resolves the run configuration: preset or config file
// first, then any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case preset != "" && configFile != "":
		return nil, errors.New("--preset and --config are mutually exclusive")
	case preset != "":
		cfg = config.GetPreset(model, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}

	if cmd.Flags().Changed("model") {
		cfg.Model = model
	}
	if cmd.Flags().Changed("solver") {
		cfg.Solver = solver
	}
	if cmd.Flags().Changed("time") {
		cfg.Time = duration
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp := experiment.New(cfg, experiment.NewRegistry(), log)
	if err := exp.Setup(); err != nil {
		return err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(viz.Summary(result.Model+" / "+result.Subject, result.Trajectory, result.Metrics))
	fmt.Printf("completed in %v\n", result.Elapsed)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunMetadata{
			Model:   result.Model,
			Subject: result.Subject,
			Time:    cfg.Time,
			Dt:      cfg.Dt,
			Metrics: result.Metrics,
			Scaled:  result.Scaled,
		}, result.Trajectory)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if output != "" {
		if err := export.SaveSVG(output, result.Trajectory, 800, 500); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", output)
	}

	if live {
		p := tea.NewProgram(viz.NewPlayer(result.Model+" / "+result.Subject, result.Trajectory, frameRate))
		_, err := p.Run()
		return err
	}
	return nil
}

func runCohort(cmd *cobra.Command, args []string) error {
	if preset != "" {
		return errors.New("cohort takes presets as arguments, not --preset")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	subjects := make([]subject.Descriptor, 0, len(args))
	for _, name := range args {
		p := config.GetPreset(cfg.Model, name)
		if p == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets(cfg.Model))
		}
		s, err := p.LoadSubject()
		if err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		if s == nil {
			return fmt.Errorf("preset %s has no subject", name)
		}
		subjects = append(subjects, s)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp := experiment.New(cfg, experiment.NewRegistry(), newLogger())
	results, err := exp.RunCohort(ctx, subjects, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SUBJECT\tAUC BLOOD\tPEAK TUMOR\tAUC KIDNEY\tAUC SALIVARY\tWARNINGS")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%.2f\t%.4f\t%.2f\t%.2f\t%d\n",
			r.Subject,
			r.Metrics["auc_blood"],
			r.Metrics["peak_tumor"],
			r.Metrics["auc_kidney"],
			r.Metrics["auc_salivary"],
			len(r.Trajectory.Warnings),
		)
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tMODEL\tSUBJECT\tTIME\tHORIZON\tDT\tSOLVER\tWARNINGS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fh\t%.4fh\t%s\t%d\n",
			shortID(run.ID),
			run.Model,
			run.Subject,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Time,
			run.Dt,
			run.Solver,
			len(run.Warnings),
		)
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(meta.ID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s, subject: %s\n", meta.Model, meta.Subject)
	fmt.Printf("samples: %d\n\n", tr.Len())

	graph, err := viz.Plot(tr, compartments, plotWidth, plotHeight)
	if err != nil {
		return err
	}
	fmt.Println(graph)
	return nil
}

func svgRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(meta.ID)
	if err != nil {
		return err
	}
	path := output
	if path == "" {
		path = meta.ID + ".svg"
	}
	if err := export.SaveSVG(path, tr, svgWidth, svgHeight); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	tr, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if output == "" {
		return storage.WriteCSV(os.Stdout, tr)
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := storage.WriteCSV(f, tr); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(meta.ID)
	if err != nil {
		return err
	}
	data := storage.NewExport(*meta, tr)
	if output == "" {
		return storage.ExportJSONStdout(data)
	}
	return storage.ExportJSON(output, data)
}

// exportSBML writes the configured model, subject volumes and
// overrides included, as a document that run --config can read back.
func exportSBML(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, experiment.NewRegistry(), newLogger())
	if err := exp.Setup(); err != nil {
		return err
	}
	m := exp.Model()
	doc, err := sbml.FromStores(m.Name(), m.Params(), m.Compartments())
	if err != nil {
		return err
	}
	if output == "" {
		return sbml.Write(os.Stdout, doc)
	}
	return sbml.WriteFile(output, doc)
}

func liveRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(meta.ID)
	if err != nil {
		return err
	}
	title := strings.Join([]string{meta.Model, meta.Subject}, " / ")
	_, err = tea.NewProgram(viz.NewPlayer(title, tr, frameRate), tea.WithAltScreen()).Run()
	return err
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), newLogger())
	for i, r := range results {
		fmt.Printf("step %d: %s / %s, %d samples, %d warnings\n",
			i+1, r.Model, r.Subject, r.Trajectory.Len(), len(r.Trajectory.Warnings))
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:  cfg,
		Param: sweepParam,
		Min:   sweepMin,
		Max:   sweepMax,
		Steps: steps,
	}, experiment.NewRegistry(), newLogger())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\tWARNINGS\n", strings.ToUpper(sweepParam), strings.ToUpper(sweepMetric))
	for _, r := range results {
		v, ok := r.Metrics[sweepMetric]
		if !ok {
			return fmt.Errorf("no metric %q", sweepMetric)
		}
		fmt.Fprintf(w, "%.6g\t%.6g\t%d\n", r.Value, v, r.Warnings)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:   cfg,
		Params: mcParams,
		CV:     cv,
		Trials: trials,
		Seed:   seed,
	}, experiment.NewRegistry(), newLogger())
	if err != nil {
		return err
	}
	mean, std, err := automation.MonteCarloStats(results, mcMetric)
	if err != nil {
		return err
	}
	warned := 0
	for _, r := range results {
		if r.Warnings > 0 {
			warned++
		}
	}
	fmt.Printf("%s over %d trials: mean %.6g, sd %.6g\n", mcMetric, len(results), mean, std)
	fmt.Printf("trials with capacity warnings: %d\n", warned)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	registry := experiment.NewRegistry()
	log := newLogger()
	build := func(p map[string]float64) (*experiment.Experiment, error) {
		c := *cfg
		c.Params = make(map[string]float64, len(cfg.Params)+len(p))
		for k, v := range cfg.Params {
			c.Params[k] = v
		}
		for k, v := range p {
			c.Params[k] = v
		}
		exp := experiment.New(&c, registry, log)
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		return exp, nil
	}

	fmt.Printf("searching %d points...\n", g.Points())
	best, val, err := g.Search(ctx, build, searchMetric)
	if err != nil {
		return err
	}
	fmt.Printf("%s = %.6g at", searchMetric, val)
	for _, n := range names {
		fmt.Printf(" %s=%g", n, best[n])
	}
	fmt.Println()
	return nil
}

// parseGrid reads name=v1,v2,... grid flags.
func parseGrid(args []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(args))
	ranges := make([][]float64, 0, len(args))
	for _, arg := range args {
		name, list, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("bad grid %q, want name=v1,v2", arg)
		}
		var values []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}
