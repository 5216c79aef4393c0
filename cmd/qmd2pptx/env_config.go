package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-qmd2pptx/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // QMD2PPTX_CONFIG: config file path
	Theme      string        // QMD2PPTX_THEME: color theme name
	Timeout    time.Duration // QMD2PPTX_TIMEOUT: per-document timeout

	// Tier 2 - I/O
	InputDir  string // QMD2PPTX_INPUT_DIR: default input directory
	OutputDir string // QMD2PPTX_OUTPUT_DIR: default output directory
	Macros    string // QMD2PPTX_MACROS: shared LaTeX macros file

	// Tier 3 - Extended
	Interpreter string // QMD2PPTX_INTERPRETER: Python executable
	DPI         int    // QMD2PPTX_DPI: equation resolution
	SlideLevel  int    // QMD2PPTX_SLIDE_LEVEL: heading level per slide
	Workers     int    // QMD2PPTX_WORKERS: parallel workers
	Report      string // QMD2PPTX_REPORT: run report path
}

// knownEnvVars lists valid QMD2PPTX_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"QMD2PPTX_CONFIG":  true,
	"QMD2PPTX_THEME":   true,
	"QMD2PPTX_TIMEOUT": true,
	// Tier 2 - I/O
	"QMD2PPTX_INPUT_DIR":  true,
	"QMD2PPTX_OUTPUT_DIR": true,
	"QMD2PPTX_MACROS":     true,
	// Tier 3 - Extended
	"QMD2PPTX_INTERPRETER": true,
	"QMD2PPTX_DPI":         true,
	"QMD2PPTX_SLIDE_LEVEL": true,
	"QMD2PPTX_WORKERS":     true,
	"QMD2PPTX_REPORT":      true,
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized QMD2PPTX_* values.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:  os.Getenv("QMD2PPTX_CONFIG"),
		Theme:       os.Getenv("QMD2PPTX_THEME"),
		InputDir:    os.Getenv("QMD2PPTX_INPUT_DIR"),
		OutputDir:   os.Getenv("QMD2PPTX_OUTPUT_DIR"),
		Macros:      os.Getenv("QMD2PPTX_MACROS"),
		Interpreter: os.Getenv("QMD2PPTX_INTERPRETER"),
		Report:      os.Getenv("QMD2PPTX_REPORT"),
	}

	// Parse duration for timeout
	if timeout := os.Getenv("QMD2PPTX_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	// Parse ints
	if dpi := os.Getenv("QMD2PPTX_DPI"); dpi != "" {
		if n, err := strconv.Atoi(dpi); err == nil && n > 0 {
			cfg.DPI = n
		}
	}
	if level := os.Getenv("QMD2PPTX_SLIDE_LEVEL"); level != "" {
		if n, err := strconv.Atoi(level); err == nil && n > 0 {
			cfg.SlideLevel = n
		}
	}
	if workers := os.Getenv("QMD2PPTX_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized QMD2PPTX_* variables.
// Helps catch typos like QMD2PPTX_THME instead of QMD2PPTX_THEME.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "QMD2PPTX_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty/zero.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Theme != "" && cfg.Slides.Theme == "" {
		cfg.Slides.Theme = env.Theme
	}
	if env.InputDir != "" && cfg.Input.DefaultDir == "" {
		cfg.Input.DefaultDir = env.InputDir
	}
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.Macros != "" && cfg.Input.MacrosPath == "" {
		cfg.Input.MacrosPath = env.Macros
	}
	if env.Interpreter != "" && cfg.Figures.Interpreter == "" {
		cfg.Figures.Interpreter = env.Interpreter
	}
	if env.DPI > 0 && cfg.Equations.DPI == 0 {
		cfg.Equations.DPI = env.DPI
	}
	if env.SlideLevel > 0 && cfg.Slides.Level == 0 {
		cfg.Slides.Level = env.SlideLevel
	}
	if env.Workers > 0 && cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = env.Workers
	}
	if env.Timeout > 0 && cfg.Batch.DocumentTimeoutSeconds == 0 {
		cfg.Batch.DocumentTimeoutSeconds = int(env.Timeout.Seconds())
	}
	if env.Report != "" && cfg.Batch.ReportPath == "" {
		cfg.Batch.ReportPath = env.Report
	}
}
