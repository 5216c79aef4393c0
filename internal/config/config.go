// Package config loads and validates YAML configuration for slide
// generation. Configs are referenced by file path or by bare name
// resolved against the current directory and the user config dir.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-qmd2pptx/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
)

// Field length limits for multi-tenant safety.
const (
	MaxPathLength        = 2048 // file paths and URLs
	MaxThemeLength       = 50   // theme name
	MaxTitleLength       = 200  // deck title / subtitle overrides
	MaxAuthorLength      = 100  // author name
	MaxDateLength        = 30   // "2025-12-31" or "December 31, 2025"
	MaxInterpreterLength = 100  // interpreter executable name
)

// Render timing bounds in seconds.
const (
	MinFigureTimeout   = 1
	MaxFigureTimeout   = 600
	MinDocumentTimeout = 1
	MaxDocumentTimeout = 3600
)

// Config holds all configuration for slide generation.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Slides    SlidesConfig    `yaml:"slides"`
	Equations EquationsConfig `yaml:"equations"`
	Figures   FiguresConfig   `yaml:"figures"`
	Batch     BatchConfig     `yaml:"batch"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
	MacrosPath string `yaml:"macrosPath"` // LaTeX macro definitions shared across chapters
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
	KeepAssets bool   `yaml:"keepAssets"` // Keep rendered equation/figure dirs next to the deck
}

// SlidesConfig defines deck structure options.
type SlidesConfig struct {
	Level      int    `yaml:"level"`      // Heading level that opens a slide, 1-6 (default: 2)
	Theme      string `yaml:"theme"`      // Color theme name (default: "finance")
	TitleSlide bool   `yaml:"titleSlide"` // Emit a leading title slide
	Title      string `yaml:"title"`      // Optional title override
	Subtitle   string `yaml:"subtitle"`   // Optional subtitle override
	Author     string `yaml:"author"`     // Fallback when front matter has no author
	Date       string `yaml:"date"`       // Fallback when front matter has no date
}

// EquationsConfig defines LaTeX rendering options.
type EquationsConfig struct {
	DPI int `yaml:"dpi"` // Raster resolution (default: 300)
}

// FiguresConfig defines figure code execution options.
type FiguresConfig struct {
	Interpreter    string `yaml:"interpreter"`    // Python executable (default: "python3")
	TimeoutSeconds int    `yaml:"timeoutSeconds"` // Per-figure wall clock limit (default: 60)
	CodeSnapshots  bool   `yaml:"codeSnapshots"`  // Show highlighted source instead of executing figures
}

// BatchConfig defines multi-document processing options.
type BatchConfig struct {
	Workers                int    `yaml:"workers"`                // Parallel documents (default: CPU count, max 8)
	DocumentTimeoutSeconds int    `yaml:"documentTimeoutSeconds"` // Per-document wall clock limit (default: 300)
	ReportPath             string `yaml:"reportPath"`             // Where to write the YAML run report (empty = stdout)
}

// Validate checks field lengths and value ranges. Called automatically
// by LoadConfig, but available for consumers who construct Config
// manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("input.defaultDir", c.Input.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("input.macrosPath", c.Input.MacrosPath, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}

	if err := validateFieldLength("slides.theme", c.Slides.Theme, MaxThemeLength); err != nil {
		return err
	}
	if err := validateFieldLength("slides.title", c.Slides.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("slides.subtitle", c.Slides.Subtitle, MaxTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("slides.author", c.Slides.Author, MaxAuthorLength); err != nil {
		return err
	}
	if err := validateFieldLength("slides.date", c.Slides.Date, MaxDateLength); err != nil {
		return err
	}
	if c.Slides.Level != 0 && (c.Slides.Level < 1 || c.Slides.Level > 6) {
		return fmt.Errorf("slides.level: must be between 1 and 6, got %d", c.Slides.Level)
	}

	if c.Equations.DPI != 0 && (c.Equations.DPI < 72 || c.Equations.DPI > 1200) {
		return fmt.Errorf("equations.dpi: must be between 72 and 1200, got %d", c.Equations.DPI)
	}

	if err := validateFieldLength("figures.interpreter", c.Figures.Interpreter, MaxInterpreterLength); err != nil {
		return err
	}
	if t := c.Figures.TimeoutSeconds; t != 0 && (t < MinFigureTimeout || t > MaxFigureTimeout) {
		return fmt.Errorf("figures.timeoutSeconds: must be between %d and %d, got %d", MinFigureTimeout, MaxFigureTimeout, t)
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers: cannot be negative, got %d", c.Batch.Workers)
	}
	if t := c.Batch.DocumentTimeoutSeconds; t != 0 && (t < MinDocumentTimeout || t > MaxDocumentTimeout) {
		return fmt.Errorf("batch.documentTimeoutSeconds: must be between %d and %d, got %d", MinDocumentTimeout, MaxDocumentTimeout, t)
	}
	if err := validateFieldLength("batch.reportPath", c.Batch.ReportPath, MaxPathLength); err != nil {
		return err
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a neutral configuration. Zero values mean
// "use the built-in default" and are resolved by the converter.
func DefaultConfig() *Config {
	return &Config{
		Slides: SlidesConfig{TitleSlide: true},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard
// locations. Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Seed from defaults so a file that stays silent on a field keeps the
	// documented default instead of the zero value (titleSlide above all).
	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-qmd2pptx/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	// Try current directory first (both extensions)
	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	// Try user config directory (both extensions)
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-qmd2pptx", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
