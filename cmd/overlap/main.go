package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unbound-force/overlap/internal/analysis"
	"github.com/unbound-force/overlap/internal/cache"
	"github.com/unbound-force/overlap/internal/config"
	"github.com/unbound-force/overlap/internal/coverage"
	"github.com/unbound-force/overlap/internal/gate"
	"github.com/unbound-force/overlap/internal/hooks"
	"github.com/unbound-force/overlap/internal/ingest"
	"github.com/unbound-force/overlap/internal/report"
	"github.com/unbound-force/overlap/internal/source"
	"github.com/unbound-force/overlap/internal/validate"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

// exitCodeError carries a non-zero process exit code out of a
// command without printing anything further.
type exitCodeError int

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", int(e))
}

func main() {
	var (
		configPath string
		logLevel   string
		logFile    string
	)

	root := &cobra.Command{
		Use:   "overlap",
		Short: "Overlap - test redundancy analysis via coverage fingerprints",
		Long: `Overlap compares per-test coverage fingerprints to find tests
that are exact duplicates of each other, strict subsets of broader
tests, or highly similar by Jaccard overlap, then scores overall
suite quality and recommends cleanups.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFile != "" {
				cfg.Log.File = logFile
			}
			if err := configureLogger(cfg); err != nil {
				return err
			}
			cmd.SetContext(config.Into(cmd.Context(), cfg))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config file (default: "+config.DefaultFile+" if present)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info, warn, or error")
	root.PersistentFlags().StringVar(&logFile, "log-file", "",
		"append logs to this file instead of stderr")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newScoreCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newBaselineCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newDemoCmd())

	if err := root.Execute(); err != nil {
		var code exitCodeError
		if errors.As(err, &code) {
			os.Exit(int(code))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configureLogger applies the config's log level and optional log
// file to the package logger.
func configureLogger(cfg config.Config) error {
	level, err := charmlog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q", cfg.Log.Level)
	}
	logger.SetLevel(level)
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		logger.SetOutput(f)
	}
	return nil
}

// loadRegistry ingests a coverage source into a fresh registry. The
// path may be a per-test JSON/YAML document, a single Go cover
// profile (.out), or a directory of per-test cover profiles.
func loadRegistry(ctx context.Context, path string, cfg config.Config) (*coverage.Registry, error) {
	limits := validate.Limits{
		MaxTests:        cfg.Limits.MaxTests,
		MaxLinesPerFile: cfg.Limits.MaxLinesPerFile,
	}

	var (
		mapping ingest.Mapping
		err     error
	)
	info, statErr := os.Stat(path)
	switch {
	case statErr == nil && info.IsDir():
		workers := cfg.Performance.Workers
		if !cfg.Performance.Parallel {
			workers = 1
		}
		logger.Info("loading cover profiles", "dir", path)
		mapping, err = ingest.FromProfileDir(ctx, path, workers)
	case strings.EqualFold(filepath.Ext(path), ".out"):
		logger.Info("loading cover profile", "path", path)
		mapping, err = ingest.FromProfile(path, "")
	default:
		logger.Info("loading coverage data", "path", path)
		mapping, err = ingest.LoadFile(path, limits)
	}
	if err != nil {
		return nil, err
	}

	reg := coverage.NewRegistry()
	ingest.Populate(reg, mapping)
	logger.Info("coverage loaded", "tests", reg.Len())
	return reg, nil
}

// analyzeParams holds the parsed flags for the analyze command.
type analyzeParams struct {
	inputPath    string
	threshold    float64
	format       string
	outputPath   string
	annotate     bool
	interactive  bool
	qualityGate  bool
	maxDups      int
	maxDupPct    float64
	baseline     string
	saveBaseline string
	baselineDir  string
	historyPath  string
	cfg          config.Config
	stdout       io.Writer
	stderr       io.Writer
}

// runAnalyze is the extracted, testable body of the analyze command.
// The returned int is the process exit code: 0 clean, 1 duplicates
// found, 2 quality gate failed.
func runAnalyze(ctx context.Context, p analyzeParams) (int, error) {
	switch p.format {
	case "text", "json", "csv", "markdown", "html":
	default:
		return 0, fmt.Errorf(
			"invalid format %q: must be 'text', 'json', 'csv', 'markdown', or 'html'",
			p.format)
	}
	if p.outputPath == "" && (p.format == "csv" || p.format == "html") {
		return 0, fmt.Errorf("--output is required for format %q", p.format)
	}

	reg, err := loadRegistry(ctx, p.inputPath, p.cfg)
	if err != nil {
		return 0, err
	}

	h := hooks.Default()
	h.Trigger(hooks.BeforeAnalysis, map[string]any{
		"input": p.inputPath,
		"tests": reg.Len(),
	})

	a := report.New(reg, p.threshold)
	fireFindingHooks(h, a)
	if p.annotate {
		a.Annotate(source.NewReader(), 5)
	}

	out := p.stdout
	if p.outputPath != "" {
		allowed := []string{filepath.Dir(p.outputPath)}
		clean, err := validate.OutputPath(p.outputPath, allowed)
		if err != nil {
			return 0, err
		}
		f, err := os.Create(clean)
		if err != nil {
			return 0, fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if p.interactive {
		if err := runInteractiveReport(a); err != nil {
			return 0, err
		}
	} else if err := writeReport(out, p.format, a); err != nil {
		return 0, err
	}

	passed, details, err := runGate(p, reg)
	if err != nil {
		return 0, err
	}

	h.Trigger(hooks.AfterAnalysis, map[string]any{
		"duplicates": a.Statistics.ExactDuplicates,
		"passed":     passed,
	})
	if !passed {
		h.Trigger(hooks.OnQualityGateFail, map[string]any{
			"failures": details.Failures,
		})
		for _, failure := range details.Failures {
			logger.Error("quality gate", "failure", failure)
		}
	}

	return gate.ExitCode(passed, a.Statistics.ExactDuplicates), nil
}

// fireFindingHooks triggers one hook per detected finding.
func fireFindingHooks(h *hooks.Registry, a *report.Analysis) {
	for _, group := range a.ExactGroups {
		h.Trigger(hooks.OnDuplicateFound, map[string]any{
			"tests": group,
		})
	}
	for _, p := range a.Subsets {
		h.Trigger(hooks.OnSubsetFound, map[string]any{
			"subset":   p.Subset,
			"superset": p.Superset,
			"ratio":    p.Ratio,
		})
	}
	for _, p := range a.Similar {
		h.Trigger(hooks.OnSimilarFound, map[string]any{
			"a":          p.A,
			"b":          p.B,
			"similarity": p.Similarity,
		})
	}
}

// writeReport outputs the analysis in the requested format.
func writeReport(w io.Writer, format string, a *report.Analysis) error {
	switch format {
	case "json":
		return report.WriteJSON(w, a)
	case "csv":
		return report.WriteCSV(w, a)
	case "markdown":
		return report.WriteMarkdown(w, a)
	case "html":
		return report.WriteHTML(w, a, "")
	default:
		return report.WriteText(w, a)
	}
}

// runGate evaluates the quality gate, records baselines and trend
// history, and reports whether the run passed.
func runGate(p analyzeParams, reg *coverage.Registry) (bool, gate.Details, error) {
	store := gate.NewBaselineStore(p.baselineDir)

	var baseline *gate.Result
	if p.baseline != "" {
		loaded, err := store.Load(p.baseline)
		if err != nil {
			return false, gate.Details{}, err
		}
		if loaded == nil {
			logger.Warn("baseline not found", "name", p.baseline)
		}
		baseline = loaded
	}

	g := gate.NewGate()
	enforce := p.qualityGate
	if p.maxDups >= 0 {
		g.MaxDuplicates = &p.maxDups
		enforce = true
	}
	if p.maxDupPct >= 0 {
		g.MaxDuplicatePercentage = &p.maxDupPct
		enforce = true
	}

	passed, details := g.Check(reg, p.threshold, baseline)
	if !enforce && baseline == nil {
		passed = true
		details.Passed = true
		details.Failures = nil
	}

	if p.saveBaseline != "" {
		if err := store.Save(p.saveBaseline, details.Result); err != nil {
			return false, gate.Details{}, err
		}
		logger.Info("baseline saved", "name", p.saveBaseline, "dir", store.Dir())
	}
	if p.historyPath != "" {
		trend := gate.NewTrend(p.historyPath)
		if err := trend.Append(details.Result); err != nil {
			return false, gate.Details{}, err
		}
		improving, err := trend.Improving("exact_duplicates")
		if err == nil && !improving {
			logger.Warn("exact duplicates trending upward", "history", p.historyPath)
		}
	}

	return passed, details, nil
}

func newAnalyzeCmd() *cobra.Command {
	var p analyzeParams

	cmd := &cobra.Command{
		Use:   "analyze <coverage-file|profile-dir>",
		Short: "Detect duplicate, subset, and similar tests",
		Long: `Analyze per-test coverage data and report tests whose coverage
fingerprints are exact duplicates, strict subsets of another test,
or similar above the Jaccard threshold.

The input may be a per-test coverage JSON/YAML document, a Go cover
profile (.out), or a directory of per-test cover profiles.

Exit codes: 0 no duplicates, 1 duplicates found, 2 quality gate failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.inputPath = args[0]
			p.cfg = config.From(cmd.Context())
			if !cmd.Flags().Changed("threshold") {
				p.threshold = p.cfg.Analysis.SimilarityThreshold
			}
			p.stdout = os.Stdout
			p.stderr = os.Stderr
			code, err := runAnalyze(cmd.Context(), p)
			if err != nil {
				return err
			}
			if code != 0 {
				return exitCodeError(code)
			}
			return nil
		},
	}

	cmd.Flags().Float64VarP(&p.threshold, "threshold", "t", coverage.DefaultThreshold,
		"Jaccard similarity threshold (0..1)")
	cmd.Flags().StringVar(&p.format, "format", "text",
		"output format: text, json, csv, markdown, or html")
	cmd.Flags().StringVarP(&p.outputPath, "output", "o", "",
		"write the report to this file (required for csv and html)")
	cmd.Flags().BoolVar(&p.annotate, "annotate", false,
		"attach source excerpts to exact duplicate groups")
	cmd.Flags().BoolVarP(&p.interactive, "interactive", "i", false,
		"launch interactive TUI for browsing results")
	cmd.Flags().BoolVar(&p.qualityGate, "quality-gate", false,
		"enforce the quality gate (exit 2 on failure)")
	cmd.Flags().IntVar(&p.maxDups, "max-duplicates", -1,
		"fail if exact duplicates exceed this (-1 = no limit)")
	cmd.Flags().Float64Var(&p.maxDupPct, "max-duplicate-percentage", -1,
		"fail if duplicate percentage exceeds this (-1 = no limit)")
	cmd.Flags().StringVar(&p.baseline, "baseline", "",
		"compare against this saved baseline and fail on increase")
	cmd.Flags().StringVar(&p.saveBaseline, "save-baseline", "",
		"save this run's metrics as a named baseline")
	cmd.Flags().StringVar(&p.baselineDir, "baseline-dir", "",
		"baseline storage directory (default: .overlap/baselines)")
	cmd.Flags().StringVar(&p.historyPath, "history", "",
		"append this run's metrics to a trend history file")

	return cmd
}

// scoreParams holds the parsed flags for the score command.
type scoreParams struct {
	inputPath string
	threshold float64
	format    string
	cfg       config.Config
	stdout    io.Writer
}

// runScore is the extracted, testable body of the score command.
func runScore(ctx context.Context, p scoreParams) error {
	if p.format != "text" && p.format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", p.format)
	}

	store, err := cache.New(p.cfg.Cache.Dir, p.cfg.Cache.Enabled)
	if err != nil {
		return err
	}
	var key string
	if hash, err := validate.FileHash(p.inputPath); err == nil {
		key = cache.Key(map[string]any{
			"kind":      "score",
			"hash":      hash,
			"threshold": p.threshold,
		})
		var cached analysis.Score
		if store.Get(key, &cached) {
			logger.Debug("score served from cache", "key", key)
			return writeScore(p.stdout, p.format, cached)
		}
	}

	reg, err := loadRegistry(ctx, p.inputPath, p.cfg)
	if err != nil {
		return err
	}
	score := analysis.NewScorer(reg).Calculate(p.threshold)

	if key != "" {
		if err := store.Put(key, score); err != nil {
			logger.Debug("score cache write failed", "err", err)
		}
	}
	return writeScore(p.stdout, p.format, score)
}

func writeScore(w io.Writer, format string, score analysis.Score) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(score)
	}

	s := report.DefaultStyles()
	grade := s.GradeStyle(score.Grade).Render(score.Grade)
	fmt.Fprintln(w, s.Header.Render("=== Test Suite Quality ==="))
	fmt.Fprintf(w, "%s%s\n", s.SummaryLabel.Render("Overall:"),
		fmt.Sprintf("%.1f/100 (%s)", score.Overall, grade))
	fmt.Fprintf(w, "%s%.1f\n", s.SummaryLabel.Render("Duplication:"), score.Duplication)
	fmt.Fprintf(w, "%s%.1f\n", s.SummaryLabel.Render("Efficiency:"), score.CoverageEfficiency)
	fmt.Fprintf(w, "%s%.1f\n", s.SummaryLabel.Render("Uniqueness:"), score.Uniqueness)
	for _, hint := range score.Recommendations {
		fmt.Fprintf(w, "  - %s\n", hint)
	}
	return nil
}

func newScoreCmd() *cobra.Command {
	var p scoreParams

	cmd := &cobra.Command{
		Use:   "score <coverage-file|profile-dir>",
		Short: "Score overall test suite quality",
		Long: `Compute a 0-100 quality score from duplication, coverage
efficiency, and uniqueness, with a letter grade and improvement
hints. Scores for unchanged inputs are served from the result cache
when caching is enabled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.inputPath = args[0]
			p.cfg = config.From(cmd.Context())
			if !cmd.Flags().Changed("threshold") {
				p.threshold = p.cfg.Analysis.SimilarityThreshold
			}
			p.stdout = os.Stdout
			return runScore(cmd.Context(), p)
		},
	}

	cmd.Flags().Float64VarP(&p.threshold, "threshold", "t", coverage.DefaultThreshold,
		"Jaccard similarity threshold (0..1)")
	cmd.Flags().StringVar(&p.format, "format", "text",
		"output format: text or json")

	return cmd
}

// convertParams holds the parsed flags for the convert command.
type convertParams struct {
	inputPath    string
	outputPath   string
	withContexts bool
	stdout       io.Writer
}

// runConvert is the extracted, testable body of the convert command.
func runConvert(p convertParams) error {
	clean, err := validate.InputPath(p.inputPath, true)
	if err != nil {
		return err
	}
	doc, err := os.ReadFile(clean)
	if err != nil {
		return fmt.Errorf("reading %s: %w", clean, err)
	}

	var mapping ingest.Mapping
	if p.withContexts {
		mapping, err = ingest.ConvertContexts(doc)
	} else {
		mapping, err = ingest.ConvertAggregate(doc)
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.outputPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", p.outputPath, err)
	}

	logger.Info("converted coverage data",
		"tests", len(mapping), "output", p.outputPath)
	fmt.Fprintf(p.stdout, "Wrote %d test(s) to %s\n", len(mapping), p.outputPath)
	return nil
}

func newConvertCmd() *cobra.Command {
	var p convertParams

	cmd := &cobra.Command{
		Use:   "convert <coverage-report.json>",
		Short: "Convert an aggregate coverage report to per-test form",
		Long: `Convert a coverage report of the form
{"files": {path: {"executed_lines": [...]}}} into the per-test
mapping consumed by analyze. With --with-contexts, per-test context
data is extracted instead of a single aggregated bucket.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.inputPath = args[0]
			p.stdout = os.Stdout
			return runConvert(p)
		},
	}

	cmd.Flags().StringVarP(&p.outputPath, "output", "o", "overlap_coverage.json",
		"output file for the converted mapping")
	cmd.Flags().BoolVar(&p.withContexts, "with-contexts", false,
		"extract per-test contexts instead of the aggregate bucket")

	return cmd
}

func newBaselineCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage saved quality baselines",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "",
		"baseline storage directory (default: .overlap/baselines)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved baselines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBaselineList(gate.NewBaselineStore(dir), cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show a saved baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBaselineShow(gate.NewBaselineStore(dir), args[0], cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBaselineDelete(gate.NewBaselineStore(dir), args[0], cmd.OutOrStdout())
		},
	})

	return cmd
}

func runBaselineList(store *gate.BaselineStore, w io.Writer) error {
	names, err := store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(w, "No baselines saved.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

func runBaselineShow(store *gate.BaselineStore, name string, w io.Writer) error {
	res, err := store.Load(name)
	if err != nil {
		return err
	}
	if res == nil {
		return fmt.Errorf("baseline %q not found", name)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runBaselineDelete(store *gate.BaselineStore, name string, w io.Writer) error {
	if err := store.Delete(name); err != nil {
		return err
	}
	fmt.Fprintf(w, "Deleted baseline %q\n", name)
	return nil
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for analyze output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of overlap analyze --format=json output. Useful for
validating output or generating client types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}

// demoRegistry builds a canned registry that shows all three
// detection kinds in one report.
func demoRegistry() *coverage.Registry {
	reg := coverage.NewRegistry()
	reg.Add("TestLoginSuccess", map[string][]int{
		"auth.go": {10, 11, 12, 20, 21},
	})
	reg.Add("TestLoginOK", map[string][]int{
		"auth.go": {10, 11, 12, 20, 21},
	})
	reg.Add("TestLoginHappyPath", map[string][]int{
		"auth.go": {10, 11, 12, 20, 21},
	})
	reg.Add("TestValidateToken", map[string][]int{
		"auth.go": {10, 11, 12},
	})
	reg.Add("TestSessionRefresh", map[string][]int{
		"auth.go":    {10, 11, 12, 20, 22},
		"session.go": {5, 6},
	})
	reg.Add("TestSessionExpiry", map[string][]int{
		"auth.go":    {10, 11, 12, 20, 23},
		"session.go": {5, 6},
	})
	reg.Add("TestPasswordReset", map[string][]int{
		"reset.go": {40, 41, 42, 43},
	})
	return reg
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the analyzer on canned example data",
		Long: `Analyze a small built-in test suite that contains exact
duplicates, a subset, and a similar pair, and print the text
report. Handy for a first look at the output format.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := report.New(demoRegistry(), coverage.DefaultThreshold)
			return report.WriteText(cmd.OutOrStdout(), a)
		},
	}
}
