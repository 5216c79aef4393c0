package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	qmd2pptx "github.com/alnah/go-qmd2pptx"
	"github.com/alnah/go-qmd2pptx/internal/config"
	"github.com/alnah/go-qmd2pptx/internal/figure"
	"github.com/alnah/go-qmd2pptx/internal/hints"
	"github.com/alnah/go-qmd2pptx/internal/report"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadChapter        = errors.New("failed to read chapter file")
	ErrReadMacros         = errors.New("failed to read macros file")
	ErrWriteDeck          = errors.New("failed to write deck file")
	ErrInvalidExtension   = errors.New("file must have .qmd or .md extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Converter is the interface for the conversion service.
type Converter interface {
	Convert(ctx context.Context, input qmd2pptx.Input) (*qmd2pptx.Result, error)
}

// Compile-time interface implementation check.
var _ Converter = (*qmd2pptx.Service)(nil)

// Pool abstracts service pool operations for testability.
type Pool interface {
	Acquire() Converter
	Release(Converter)
	Size() int
	Close() error
}

// poolFactory creates a Pool; swapped by tests.
type poolFactory func(size int, opts ...qmd2pptx.Option) Pool

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, newPool poolFactory, env *Environment) error {
	// Validate worker count early
	if err := validateWorkers(flags.batch.workers); err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	if !flags.common.quiet {
		warnUnknownEnvVars(env.Stderr)
	}

	// Load configuration: flag > env var > defaults
	cfg := env.Config
	configPath := flags.common.config
	if configPath == "" {
		configPath = envCfg.ConfigPath
	}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(nil))
			}
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	// Merge env vars then CLI flags into config (CLI wins)
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	// Resolve input path
	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}

	// Resolve output directory
	outputDir := resolveOutputDir(flags.output, cfg)

	// Discover files to convert
	files, err := discoverFiles(inputPath, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("no chapter files found in %s", inputPath)
	}

	// Load shared macros once for the whole batch
	macros, err := loadMacros(cfg.Input.MacrosPath)
	if err != nil {
		return err
	}

	// Build service options from the merged config
	opts, err := buildServiceOptions(flags, cfg, macros)
	if err != nil {
		return err
	}

	// A missing interpreter degrades every figure; say so once up front.
	if !cfg.Figures.CodeSnapshots && !flags.common.quiet {
		if r := figure.NewPythonRunner(cfg.Figures.Interpreter); !r.Available() {
			fmt.Fprintf(env.Stderr, "warning: %s not found; figures will render as placeholders%s\n",
				r.Bin(), hints.ForInterpreter(r.Bin()))
		}
	}

	poolSize := qmd2pptx.ResolvePoolSize(cfg.Batch.Workers)
	if poolSize > len(files) {
		poolSize = len(files)
	}
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Pool size: %d\n", poolSize)
	}
	pool := newPool(poolSize, opts...)
	defer pool.Close()

	// Convert files
	startedAt := env.Now()
	results := convertBatch(ctx, pool, files, flags.batch.keepAssets)

	// Print results and write the run report
	failedCount := printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, env)

	if reportPath := resolveReportPath(flags.batch.report, cfg); reportPath != "" {
		if err := writeRunReport(reportPath, startedAt, results, env); err != nil {
			return err
		}
	}

	if failedCount > 0 {
		return fmt.Errorf("%d conversion(s) failed", failedCount)
	}

	return nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	// Deck flags
	if flags.deck.slideLevel > 0 {
		cfg.Slides.Level = flags.deck.slideLevel
	}
	if flags.deck.theme != "" {
		cfg.Slides.Theme = flags.deck.theme
	}
	if flags.deck.title != "" {
		cfg.Slides.Title = flags.deck.title
	}
	if flags.deck.subtitle != "" {
		cfg.Slides.Subtitle = flags.deck.subtitle
	}
	if flags.deck.author != "" {
		cfg.Slides.Author = flags.deck.author
	}
	if flags.deck.date != "" {
		cfg.Slides.Date = flags.deck.date
	}
	if flags.deck.noTitleSlide {
		cfg.Slides.TitleSlide = false
	}

	// Render flags
	if flags.render.dpi > 0 {
		cfg.Equations.DPI = flags.render.dpi
	}
	if flags.render.macros != "" {
		cfg.Input.MacrosPath = flags.render.macros
	}
	if flags.render.interpreter != "" {
		cfg.Figures.Interpreter = flags.render.interpreter
	}
	if flags.render.codeSnapshots {
		cfg.Figures.CodeSnapshots = true
	}

	// Batch flags
	if flags.batch.workers > 0 {
		cfg.Batch.Workers = flags.batch.workers
	}
	if flags.batch.report != "" {
		cfg.Batch.ReportPath = flags.batch.report
	}
}

// buildServiceOptions translates the merged config into library options.
func buildServiceOptions(flags *convertFlags, cfg *config.Config, macros string) ([]qmd2pptx.Option, error) {
	var opts []qmd2pptx.Option

	if cfg.Slides.Level > 0 {
		opts = append(opts, qmd2pptx.WithSlideLevel(cfg.Slides.Level))
	}
	if cfg.Slides.Theme != "" {
		opts = append(opts, qmd2pptx.WithTheme(cfg.Slides.Theme))
	}
	if cfg.Slides.Title != "" {
		opts = append(opts, qmd2pptx.WithTitle(cfg.Slides.Title))
	}
	if cfg.Slides.Subtitle != "" {
		opts = append(opts, qmd2pptx.WithSubtitle(cfg.Slides.Subtitle))
	}
	if !cfg.Slides.TitleSlide {
		opts = append(opts, qmd2pptx.WithTitleSlide(false))
	}
	if cfg.Slides.Author != "" {
		opts = append(opts, qmd2pptx.WithAuthor(cfg.Slides.Author))
	}
	if cfg.Slides.Date != "" {
		opts = append(opts, qmd2pptx.WithDate(cfg.Slides.Date))
	}
	if cfg.Equations.DPI > 0 {
		opts = append(opts, qmd2pptx.WithDPI(cfg.Equations.DPI))
	}
	if cfg.Figures.Interpreter != "" {
		opts = append(opts, qmd2pptx.WithInterpreter(cfg.Figures.Interpreter))
	}
	if cfg.Figures.CodeSnapshots {
		opts = append(opts, qmd2pptx.WithCodeSnapshots(true))
	}
	if macros != "" {
		opts = append(opts, qmd2pptx.WithMacros(macros))
	}

	docTimeout, err := resolveTimeout(flags.batch.timeout, cfg.Batch.DocumentTimeoutSeconds)
	if err != nil {
		return nil, err
	}
	if docTimeout > 0 {
		opts = append(opts, qmd2pptx.WithTimeout(docTimeout))
	}

	figTimeout, err := resolveTimeout(flags.render.figureTimeout, cfg.Figures.TimeoutSeconds)
	if err != nil {
		return nil, err
	}
	if figTimeout > 0 {
		opts = append(opts, qmd2pptx.WithFigureTimeout(figTimeout))
	}

	return opts, nil
}

// resolveTimeout parses a flag duration, falling back to config seconds.
// Returns 0 when neither is set (library default applies).
func resolveTimeout(flagValue string, configSeconds int) (time.Duration, error) {
	if flagValue != "" {
		d, err := time.ParseDuration(flagValue)
		if err != nil || d <= 0 {
			return 0, fmt.Errorf("%w: %q (use forms like 30s, 2m)", ErrInvalidTimeout, flagValue)
		}
		return d, nil
	}
	if configSeconds > 0 {
		return time.Duration(configSeconds) * time.Second, nil
	}
	return 0, nil
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir determines the output directory from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// resolveReportPath determines the run report destination. The flag's
// "-" form maps to stdout, which report.WriteFile expresses as "".
func resolveReportPath(flagReport string, cfg *config.Config) string {
	path := flagReport
	if path == "" {
		path = cfg.Batch.ReportPath
	}
	if path == "-" {
		return "stdout"
	}
	return path
}

// loadMacros reads the shared LaTeX macros file, if configured.
func loadMacros(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return "", fmt.Errorf("%w: %v%s", ErrReadMacros, err, hints.ForMacrosFile())
	}
	return string(data), nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > qmd2pptx.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, qmd2pptx.MaxPoolSize)
	}
	return nil
}

// writeRunReport builds and writes the YAML batch report.
func writeRunReport(path string, startedAt time.Time, results []ConversionResult, env *Environment) error {
	docs := make([]report.DocumentResult, 0, len(results))
	for _, r := range results {
		docs = append(docs, r.toReport())
	}
	rep := report.Build(startedAt, docs)

	if path == "stdout" {
		data, err := rep.Marshal()
		if err != nil {
			return err
		}
		_, err = env.Stdout.Write(data)
		return err
	}
	return rep.WriteFile(path)
}

// printResultsWithWriter outputs conversion results using the provided writers.
func printResultsWithWriter(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	var succeeded, failed int

	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		succeeded++
		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%d slides, %v)\n",
				r.InputPath, r.OutputPath, r.SlideCount, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
		for _, issue := range r.Issues {
			extra := ""
			if issue.Timeout {
				extra = hints.ForFigureTimeout()
			}
			fmt.Fprintf(env.Stderr, "  warning: %s: %s%s\n", r.InputPath, issue, extra)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", succeeded, failed)
	}

	return failed
}
