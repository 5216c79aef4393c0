package qmd2pptx

import (
	"fmt"
	"time"

	"github.com/alnah/go-qmd2pptx/internal/figure"
	"github.com/alnah/go-qmd2pptx/internal/render"
)

// Rendering bounds.
const (
	MinDPI = 72
	MaxDPI = 1200

	MinSlideLevel = 1
	MaxSlideLevel = 6
)

// Defaults applied when options leave a value unset.
const (
	DefaultDPI        = 300
	DefaultSlideLevel = 2
	DefaultTheme      = "finance"

	defaultTimeout       = 5 * time.Minute
	defaultFigureTimeout = 60 * time.Second

	// renderConcurrency bounds parallel equation/figure renders within
	// one document. Each render holds a browser page or an interpreter
	// process, so this stays small.
	renderConcurrency = 4
)

// Input contains conversion parameters for one chapter.
type Input struct {
	Source string // QMD chapter content (required)
	Name   string // chapter name, used as the title fallback (optional)

	// EquationDir and FigureDir receive the rendered PNGs for their
	// block kind. An empty dir means a private temp dir discarded after
	// the deck is built.
	EquationDir string
	FigureDir   string
}

// RenderIssue is one recovered degradation: an equation or figure that
// could not be rendered and appears on its slide as a placeholder.
type RenderIssue struct {
	Kind    string // "equation" or "figure"
	Ref     string // expression excerpt or figure label
	Reason  string
	Timeout bool // the unit hit its execution time limit
}

func (i RenderIssue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Kind, i.Ref, i.Reason)
}

// Result is the outcome of a successful (possibly degraded) conversion.
type Result struct {
	PPTX       []byte
	Title      string
	SlideCount int

	// Warnings counts visible degradations on the deck: render
	// placeholders plus source diagnostics.
	Warnings int
	Issues   []RenderIssue
}

// Degraded reports whether the deck was built with placeholders.
func (r *Result) Degraded() bool { return r.Warnings > 0 }

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	timeout       time.Duration
	figureTimeout time.Duration
	dpi           int
	slideLevel    int
	theme         string
	interpreter   string
	macros        string
	titleSlide    bool
	title         string
	subtitle      string
	author        string
	date          string
	codeSnapshots bool
}

// WithTimeout sets the per-document conversion timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("qmd2pptx: WithTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.timeout = d
	}
}

// WithFigureTimeout sets the per-figure execution timeout.
// Panics if d <= 0.
func WithFigureTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("qmd2pptx: WithFigureTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.figureTimeout = d
	}
}

// WithDPI sets the equation raster resolution. Validated at Convert.
func WithDPI(dpi int) Option {
	return func(s *Service) {
		s.cfg.dpi = dpi
	}
}

// WithSlideLevel sets the heading depth that opens a new slide.
// Validated at Convert.
func WithSlideLevel(level int) Option {
	return func(s *Service) {
		s.cfg.slideLevel = level
	}
}

// WithTheme selects the deck color theme by name. Validated at Convert.
func WithTheme(name string) Option {
	return func(s *Service) {
		s.cfg.theme = name
	}
}

// WithInterpreter sets the Python executable used for figures.
func WithInterpreter(bin string) Option {
	return func(s *Service) {
		s.cfg.interpreter = bin
	}
}

// WithMacros prepends shared LaTeX macro definitions to every
// chapter's own macros.
func WithMacros(preamble string) Option {
	return func(s *Service) {
		s.cfg.macros = preamble
	}
}

// WithTitleSlide controls the leading title slide (default on).
func WithTitleSlide(enabled bool) Option {
	return func(s *Service) {
		s.cfg.titleSlide = enabled
	}
}

// WithTitle overrides the deck title. An empty value keeps the
// front-matter / first-heading resolution.
func WithTitle(title string) Option {
	return func(s *Service) {
		s.cfg.title = title
	}
}

// WithSubtitle overrides the title slide's subtitle.
func WithSubtitle(subtitle string) Option {
	return func(s *Service) {
		s.cfg.subtitle = subtitle
	}
}

// WithCodeSnapshots renders every figure's source as a highlighted code
// image instead of executing it.
func WithCodeSnapshots(enabled bool) Option {
	return func(s *Service) {
		s.cfg.codeSnapshots = enabled
	}
}

// WithAuthor sets the author shown on the title slide when the chapter's
// front matter has none.
func WithAuthor(author string) Option {
	return func(s *Service) {
		s.cfg.author = author
	}
}

// WithDate sets the date shown on the title slide when the chapter's
// front matter has none.
func WithDate(date string) Option {
	return func(s *Service) {
		s.cfg.date = date
	}
}

// WithRasterizer injects a browser rasterizer (e.g., by tests).
func WithRasterizer(ras render.Rasterizer) Option {
	return func(s *Service) {
		s.ras = ras
	}
}

// WithRunner injects a figure code runner (e.g., by tests).
func WithRunner(r figure.Runner) Option {
	return func(s *Service) {
		s.runner = r
	}
}
