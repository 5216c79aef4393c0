package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qmd2pptx "github.com/alnah/go-qmd2pptx"
	"github.com/alnah/go-qmd2pptx/internal/config"
)

func testEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	env := &Environment{
		Now:    time.Now,
		Stdout: stdout,
		Stderr: stderr,
		Config: config.DefaultConfig(),
	}
	return env, stdout, stderr
}

func mockPoolFactory(size int, _ ...qmd2pptx.Option) Pool {
	return newMockPool(size)
}

func TestRunConvert(t *testing.T) {
	clearEnv(t)

	t.Run("batch with one failure returns error and writes report", func(t *testing.T) {
		dir := t.TempDir()
		for name, content := range map[string]string{
			"ch1.qmd": "# One",
			"ch2.qmd": "# FAIL here",
		} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
		}
		reportPath := filepath.Join(t.TempDir(), "run.yaml")
		env, _, stderr := testEnv()
		flags := &convertFlags{}
		flags.batch.report = reportPath

		err := runConvert(context.Background(), []string{dir}, flags, mockPoolFactory, env)
		if err == nil || !strings.Contains(err.Error(), "1 conversion(s) failed") {
			t.Fatalf("error = %v, want failure summary", err)
		}
		if !strings.Contains(stderr.String(), "FAILED") {
			t.Errorf("stderr = %q, want FAILED line", stderr.String())
		}

		if _, statErr := os.Stat(filepath.Join(dir, "Slides_ch1.pptx")); statErr != nil {
			t.Errorf("successful deck missing: %v", statErr)
		}

		data, readErr := os.ReadFile(reportPath)
		if readErr != nil {
			t.Fatalf("report not written: %v", readErr)
		}
		for _, want := range []string{"status: ok", "status: failed", "total: 2"} {
			if !strings.Contains(string(data), want) {
				t.Errorf("report missing %q:\n%s", want, data)
			}
		}
	})

	t.Run("all succeed", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "ch1.qmd"), []byte("# One"), 0o600); err != nil {
			t.Fatal(err)
		}
		env, stdout, _ := testEnv()

		err := runConvert(context.Background(), []string{dir}, &convertFlags{}, mockPoolFactory, env)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout.String(), "Created") {
			t.Errorf("stdout = %q", stdout.String())
		}
	})

	t.Run("no input returns ErrNoInput", func(t *testing.T) {
		env, _, _ := testEnv()
		err := runConvert(context.Background(), nil, &convertFlags{}, mockPoolFactory, env)
		if !errors.Is(err, ErrNoInput) {
			t.Errorf("error = %v, want ErrNoInput", err)
		}
	})

	t.Run("missing config file is fatal", func(t *testing.T) {
		env, _, _ := testEnv()
		flags := &convertFlags{}
		flags.common.config = filepath.Join(t.TempDir(), "missing.yaml")

		err := runConvert(context.Background(), []string{"."}, flags, mockPoolFactory, env)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("excessive workers rejected", func(t *testing.T) {
		env, _, _ := testEnv()
		flags := &convertFlags{}
		flags.batch.workers = qmd2pptx.MaxPoolSize + 1

		err := runConvert(context.Background(), []string{"."}, flags, mockPoolFactory, env)
		if !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("error = %v, want ErrInvalidWorkerCount", err)
		}
	})

	t.Run("empty directory reported", func(t *testing.T) {
		env, _, _ := testEnv()
		err := runConvert(context.Background(), []string{t.TempDir()}, &convertFlags{}, mockPoolFactory, env)
		if err == nil || !strings.Contains(err.Error(), "no chapter files") {
			t.Errorf("error = %v, want no-chapters message", err)
		}
	})

	t.Run("missing macros file is fatal", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "ch1.qmd"), []byte("# One"), 0o600); err != nil {
			t.Fatal(err)
		}
		env, _, _ := testEnv()
		flags := &convertFlags{}
		flags.render.macros = filepath.Join(t.TempDir(), "macros.tex")

		err := runConvert(context.Background(), []string{dir}, flags, mockPoolFactory, env)
		if !errors.Is(err, ErrReadMacros) {
			t.Errorf("error = %v, want ErrReadMacros", err)
		}
	})
}

func TestMergeFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Slides.Theme = "finance"
	cfg.Equations.DPI = 300

	flags := &convertFlags{}
	flags.deck.theme = "slate"
	flags.deck.title = "Fixed Income"
	flags.deck.subtitle = "Week 4"
	flags.deck.noTitleSlide = true
	flags.render.codeSnapshots = true
	flags.batch.workers = 2

	mergeFlags(flags, cfg)

	if cfg.Slides.Theme != "slate" {
		t.Errorf("Theme = %q, want flag to win", cfg.Slides.Theme)
	}
	if cfg.Slides.Title != "Fixed Income" || cfg.Slides.Subtitle != "Week 4" {
		t.Errorf("Title/Subtitle = %q/%q, want flags to land", cfg.Slides.Title, cfg.Slides.Subtitle)
	}
	if cfg.Equations.DPI != 300 {
		t.Errorf("DPI = %d, want config kept when flag unset", cfg.Equations.DPI)
	}
	if cfg.Slides.TitleSlide {
		t.Error("TitleSlide = true, want disabled by flag")
	}
	if !cfg.Figures.CodeSnapshots {
		t.Error("CodeSnapshots = false, want enabled by flag")
	}
	if cfg.Batch.Workers != 2 {
		t.Errorf("Workers = %d", cfg.Batch.Workers)
	}
}

func TestBuildServiceOptions_DeckOverrides(t *testing.T) {
	flags := &convertFlags{}
	base, err := buildServiceOptions(flags, config.DefaultConfig(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Slides.Title = "Fixed Income"
	cfg.Slides.Subtitle = "Week 4"
	cfg.Figures.CodeSnapshots = true
	opts, err := buildServiceOptions(flags, cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Title, subtitle, and snapshot mode each contribute an option.
	if len(opts) != len(base)+3 {
		t.Errorf("got %d options, want %d", len(opts), len(base)+3)
	}
}

func TestPrintResults_FigureTimeoutHint(t *testing.T) {
	env, _, stderr := testEnv()
	results := []ConversionResult{{
		InputPath:  "ch1.qmd",
		OutputPath: "Slides_ch1.pptx",
		Warnings:   1,
		Issues: []qmd2pptx.RenderIssue{
			{Kind: "figure", Ref: "fig-slow", Reason: "timed out after 1m0s", Timeout: true},
		},
	}}

	printResultsWithWriter(results, false, false, env)

	if !strings.Contains(stderr.String(), "raise --figure-timeout") {
		t.Errorf("stderr = %q, want a --figure-timeout hint", stderr.String())
	}
}

func TestResolveTimeout(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		seconds int
		want    time.Duration
		wantErr bool
	}{
		{"flag wins", "90s", 300, 90 * time.Second, false},
		{"config fallback", "", 300, 5 * time.Minute, false},
		{"neither set", "", 0, 0, false},
		{"invalid flag", "soon", 0, 0, true},
		{"negative flag", "-5s", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveTimeout(tt.flag, tt.seconds)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimeout) {
					t.Errorf("error = %v, want ErrInvalidTimeout", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateWorkers(t *testing.T) {
	if err := validateWorkers(0); err != nil {
		t.Errorf("0 workers (auto): %v", err)
	}
	if err := validateWorkers(qmd2pptx.MaxPoolSize); err != nil {
		t.Errorf("max workers: %v", err)
	}
	if err := validateWorkers(-1); !errors.Is(err, ErrInvalidWorkerCount) {
		t.Errorf("error = %v, want ErrInvalidWorkerCount", err)
	}
	if err := validateWorkers(qmd2pptx.MaxPoolSize + 1); !errors.Is(err, ErrInvalidWorkerCount) {
		t.Errorf("error = %v, want ErrInvalidWorkerCount", err)
	}
}

func TestResolveReportPath(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Batch.ReportPath = "from-config.yaml"

	if got := resolveReportPath("from-flag.yaml", cfg); got != "from-flag.yaml" {
		t.Errorf("got %q, want flag value", got)
	}
	if got := resolveReportPath("", cfg); got != "from-config.yaml" {
		t.Errorf("got %q, want config value", got)
	}
	if got := resolveReportPath("-", cfg); got != "stdout" {
		t.Errorf("got %q, want stdout", got)
	}
	if got := resolveReportPath("", config.DefaultConfig()); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestParseConvertFlags(t *testing.T) {
	flags, args, err := parseConvertFlags([]string{
		"--theme", "slate",
		"-o", "decks",
		"--workers", "3",
		"--keep-assets",
		"--code-snapshots",
		"book/",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flags.deck.theme != "slate" {
		t.Errorf("theme = %q", flags.deck.theme)
	}
	if flags.output != "decks" {
		t.Errorf("output = %q", flags.output)
	}
	if flags.batch.workers != 3 || !flags.batch.keepAssets {
		t.Errorf("batch = %+v", flags.batch)
	}
	if !flags.render.codeSnapshots {
		t.Error("codeSnapshots = false, want set")
	}
	if len(args) != 1 || args[0] != "book/" {
		t.Errorf("positional = %v", args)
	}
}
