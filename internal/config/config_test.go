package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Input.DefaultDir != "" {
		t.Errorf("Input.DefaultDir = %q, want empty", cfg.Input.DefaultDir)
	}
	if cfg.Output.DefaultDir != "" {
		t.Errorf("Output.DefaultDir = %q, want empty", cfg.Output.DefaultDir)
	}
	if !cfg.Slides.TitleSlide {
		t.Error("Slides.TitleSlide = false, want true")
	}
	if cfg.Slides.Level != 0 {
		t.Errorf("Slides.Level = %d, want 0 (resolved later)", cfg.Slides.Level)
	}
	if cfg.Equations.DPI != 0 {
		t.Errorf("Equations.DPI = %d, want 0 (resolved later)", cfg.Equations.DPI)
	}
}

func TestValidateFieldLength(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
		maxLength int
		wantErr   bool
	}{
		{
			name:      "empty value is valid",
			fieldName: "test",
			value:     "",
			maxLength: 10,
			wantErr:   false,
		},
		{
			name:      "value at limit is valid",
			fieldName: "test",
			value:     "1234567890",
			maxLength: 10,
			wantErr:   false,
		},
		{
			name:      "value over limit returns error",
			fieldName: "test.field",
			value:     "12345678901",
			maxLength: 10,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFieldLength(tt.fieldName, tt.value, tt.maxLength)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrFieldTooLong) {
					t.Errorf("error = %v, want ErrFieldTooLong", err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config passes validation", func(t *testing.T) {
		cfg := &Config{
			Slides: SlidesConfig{
				Level:  2,
				Theme:  "finance",
				Title:  "Fixed Income",
				Author: "Jane Quant",
				Date:   "2026-01-15",
			},
			Equations: EquationsConfig{DPI: 300},
			Figures:   FiguresConfig{Interpreter: "python3", TimeoutSeconds: 60},
			Batch:     BatchConfig{Workers: 4, DocumentTimeoutSeconds: 300},
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("zero values pass validation", func(t *testing.T) {
		if err := (&Config{}).Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("slides.theme too long returns error", func(t *testing.T) {
		cfg := &Config{Slides: SlidesConfig{Theme: strings.Repeat("x", MaxThemeLength+1)}}
		if err := cfg.Validate(); !errors.Is(err, ErrFieldTooLong) {
			t.Errorf("error = %v, want ErrFieldTooLong", err)
		}
	})

	t.Run("slides.level out of range returns error", func(t *testing.T) {
		for _, level := range []int{-1, 7} {
			cfg := &Config{Slides: SlidesConfig{Level: level}}
			if err := cfg.Validate(); err == nil {
				t.Errorf("level %d: expected error", level)
			}
		}
	})

	t.Run("equations.dpi out of range returns error", func(t *testing.T) {
		for _, dpi := range []int{71, 1201} {
			cfg := &Config{Equations: EquationsConfig{DPI: dpi}}
			if err := cfg.Validate(); err == nil {
				t.Errorf("dpi %d: expected error", dpi)
			}
		}
	})

	t.Run("figures.timeoutSeconds out of range returns error", func(t *testing.T) {
		cfg := &Config{Figures: FiguresConfig{TimeoutSeconds: MaxFigureTimeout + 1}}
		if err := cfg.Validate(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("negative workers returns error", func(t *testing.T) {
		cfg := &Config{Batch: BatchConfig{Workers: -1}}
		if err := cfg.Validate(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("batch.documentTimeoutSeconds out of range returns error", func(t *testing.T) {
		cfg := &Config{Batch: BatchConfig{DocumentTimeoutSeconds: MaxDocumentTimeout + 1}}
		if err := cfg.Validate(); err == nil {
			t.Error("expected error")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty name returns error", func(t *testing.T) {
		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("loads valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "book.yaml")
		content := `
slides:
  level: 2
  theme: slate
  titleSlide: true
equations:
  dpi: 300
figures:
  interpreter: python3
  timeoutSeconds: 90
batch:
  workers: 4
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Slides.Theme != "slate" {
			t.Errorf("Slides.Theme = %q", cfg.Slides.Theme)
		}
		if cfg.Figures.TimeoutSeconds != 90 {
			t.Errorf("Figures.TimeoutSeconds = %d", cfg.Figures.TimeoutSeconds)
		}
		if cfg.Batch.Workers != 4 {
			t.Errorf("Batch.Workers = %d", cfg.Batch.Workers)
		}
	})

	t.Run("silent fields keep their defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "book.yaml")
		if err := os.WriteFile(path, []byte("slides:\n  theme: slate\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Slides.TitleSlide {
			t.Error("Slides.TitleSlide = false, want default true when file omits it")
		}
	})

	t.Run("explicit titleSlide false wins over the default", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "book.yaml")
		if err := os.WriteFile(path, []byte("slides:\n  titleSlide: false\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Slides.TitleSlide {
			t.Error("Slides.TitleSlide = true, want explicit false kept")
		}
	})

	t.Run("unknown key returns parse error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("slides:\n  levle: 2\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("equations:\n  dpi: 20000\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bare name resolved in current directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "book.yml"), []byte("slides:\n  theme: plain\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Chdir(dir)
		cfg, err := LoadConfig("book")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Slides.Theme != "plain" {
			t.Errorf("Slides.Theme = %q", cfg.Slides.Theme)
		}
	})
}

func TestIsFilePath(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"book", false},
		{"./book.yaml", true},
		{"/etc/book.yaml", true},
		{`configs\book.yaml`, true},
	}
	for _, tt := range tests {
		if got := isFilePath(tt.in); got != tt.want {
			t.Errorf("isFilePath(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
