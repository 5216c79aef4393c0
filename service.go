package qmd2pptx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-qmd2pptx/internal/assemble"
	"github.com/alnah/go-qmd2pptx/internal/eqrender"
	"github.com/alnah/go-qmd2pptx/internal/extract"
	"github.com/alnah/go-qmd2pptx/internal/figure"
	"github.com/alnah/go-qmd2pptx/internal/pptx"
	"github.com/alnah/go-qmd2pptx/internal/render"
)

// Service orchestrates the chapter-to-slides pipeline.
type Service struct {
	cfg    serviceConfig
	ras    render.Rasterizer
	runner figure.Runner
}

// New creates a Service with default configuration.
// Use options to customize behavior (e.g., WithTimeout).
func New(opts ...Option) *Service {
	s := &Service{
		cfg: serviceConfig{
			timeout:       defaultTimeout,
			figureTimeout: defaultFigureTimeout,
			dpi:           DefaultDPI,
			slideLevel:    DefaultSlideLevel,
			theme:         DefaultTheme,
			titleSlide:    true,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	// Create the rasterizer if not injected (e.g., by tests)
	if s.ras == nil {
		s.ras = render.NewRodRasterizer(s.cfg.timeout)
	}
	if s.runner == nil {
		s.runner = figure.NewPythonRunner(s.cfg.interpreter)
	}

	return s
}

// Convert runs the full pipeline and returns the deck as bytes.
// The context is used for cancellation; the per-document timeout is
// applied on top of it.
func (s *Service) Convert(ctx context.Context, input Input) (*Result, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	theme, err := pptx.LookupTheme(s.cfg.theme)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout)
	defer cancel()

	meta, body := extract.SplitFrontMatter(input.Source)
	blocks := extract.Blocks(body)

	eqDir, cleanupEq, err := s.ensureAssetDir(input.EquationDir)
	if err != nil {
		return nil, err
	}
	defer cleanupEq()
	figDir, cleanupFig, err := s.ensureAssetDir(input.FigureDir)
	if err != nil {
		return nil, err
	}
	defer cleanupFig()

	assets, issues, err := s.renderAssets(ctx, blocks, body, eqDir, figDir)
	if err != nil {
		return nil, err
	}

	title := firstNonEmpty(s.cfg.title, extract.Title(meta, blocks, fallbackTitle(input.Name)))
	deck, err := assemble.Assemble(blocks, assets, assemble.Options{
		SlideLevel: s.cfg.slideLevel,
		Title:      title,
		Subtitle:   firstNonEmpty(s.cfg.subtitle, meta.Subtitle),
		Author:     firstNonEmpty(meta.Author, s.cfg.author),
		Date:       firstNonEmpty(meta.Date, s.cfg.date),
		TitleSlide: s.cfg.titleSlide,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssembly, err)
	}

	var buf bytes.Buffer
	if err := pptx.Write(&buf, deck, theme); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeckWrite, err)
	}

	return &Result{
		PPTX:       buf.Bytes(),
		Title:      title,
		SlideCount: len(deck.Slides),
		Warnings:   deck.Warnings,
		Issues:     issues,
	}, nil
}

// Close releases resources (headless Chrome browser).
func (s *Service) Close() error {
	if s.ras != nil {
		return s.ras.Close()
	}
	return nil
}

// validateInput checks that required fields are present and valid.
func (s *Service) validateInput(input Input) error {
	if strings.TrimSpace(input.Source) == "" {
		return ErrEmptySource
	}
	if s.cfg.dpi < MinDPI || s.cfg.dpi > MaxDPI {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidDPI, s.cfg.dpi, MinDPI, MaxDPI)
	}
	if s.cfg.slideLevel < MinSlideLevel || s.cfg.slideLevel > MaxSlideLevel {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidSlideLevel, s.cfg.slideLevel, MinSlideLevel, MaxSlideLevel)
	}
	return nil
}

// ensureAssetDir returns the directory rendered PNGs are written to.
// A caller-provided dir is created if missing and kept; an unset dir
// becomes a temp dir removed by cleanup.
func (s *Service) ensureAssetDir(dir string) (string, func(), error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrAssetDir, err)
		}
		return dir, func() {}, nil
	}
	tmp, err := os.MkdirTemp("", "qmd2pptx-assets-")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrAssetDir, err)
	}
	return tmp, func() { os.RemoveAll(tmp) }, nil
}

// renderAssets renders every equation and figure in the document into
// their asset dirs, bounded by renderConcurrency. Recoverable render
// failures become placeholder entries, with a code snapshot standing in
// for a failed figure when one can be captured. Only context errors and
// filesystem failures abort the document.
func (s *Service) renderAssets(ctx context.Context, blocks []extract.Block, body, eqDir, figDir string) (map[int]assemble.AssetResult, []RenderIssue, error) {
	preamble := strings.TrimSpace(s.cfg.macros + "\n" + extract.Macros(body))
	equations := eqrender.New(s.ras, s.cfg.dpi, preamble)
	figures := figure.New(s.runner, s.cfg.figureTimeout, s.cfg.dpi)
	snapshots := figure.NewSnapshotter(s.ras)

	assets := make(map[int]assemble.AssetResult)
	var issues []RenderIssue
	var mu sync.Mutex

	record := func(idx int, res assemble.AssetResult, issue *RenderIssue) {
		mu.Lock()
		defer mu.Unlock()
		assets[idx] = res
		if issue != nil {
			issues = append(issues, *issue)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(renderConcurrency)

	for i, b := range blocks {
		if b.Kind != extract.KindMath {
			continue
		}
		g.Go(func() error {
			png, err := equations.Render(gctx, b.Raw, b.Display)
			if err != nil {
				var fail *eqrender.RenderFailure
				if !errors.As(err, &fail) {
					return err
				}
				record(i, assemble.AssetResult{Failure: fail.Reason},
					&RenderIssue{Kind: "equation", Ref: excerpt(b.Raw), Reason: fail.Reason})
				return nil
			}
			name := fmt.Sprintf("eq-%03d-%s.png", i, equations.Hash(b.Raw, b.Display))
			path := filepath.Join(eqDir, name)
			if err := os.WriteFile(path, png, 0o600); err != nil {
				return fmt.Errorf("%w: %v", ErrAssetDir, err)
			}
			record(i, assemble.AssetResult{Path: path}, nil)
			return nil
		})
	}

	for _, spec := range figure.CollectSpecs(blocks) {
		g.Go(func() error {
			// Snapshot mode skips execution: the figure's source appears
			// on the slide as a highlighted code image.
			if s.cfg.codeSnapshots {
				snap, err := snapshots.Snapshot(gctx, spec.Code, "python", 2)
				if err != nil {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					record(spec.Index, assemble.AssetResult{Failure: err.Error()},
						&RenderIssue{Kind: "figure", Ref: spec.Label, Reason: err.Error()})
					return nil
				}
				path := filepath.Join(figDir, figureAssetName(spec, "-code"))
				if err := os.WriteFile(path, snap, 0o600); err != nil {
					return fmt.Errorf("%w: %v", ErrAssetDir, err)
				}
				record(spec.Index, assemble.AssetResult{Path: path}, nil)
				return nil
			}

			png, err := figures.Render(gctx, spec)
			if err != nil {
				var fail *figure.RenderFailure
				if !errors.As(err, &fail) {
					return err
				}
				res := assemble.AssetResult{Failure: fail.Reason}
				// A highlighted snapshot of the failing code keeps the
				// slide informative when the browser is available.
				if snap, snapErr := snapshots.Snapshot(gctx, spec.Code, "python", 2); snapErr == nil {
					snapPath := filepath.Join(figDir, figureAssetName(spec, "-code"))
					if writeErr := os.WriteFile(snapPath, snap, 0o600); writeErr == nil {
						res.Path = snapPath
					}
				}
				record(spec.Index, res,
					&RenderIssue{Kind: "figure", Ref: spec.Label, Reason: fail.Reason, Timeout: fail.Timeout})
				return nil
			}
			path := filepath.Join(figDir, figureAssetName(spec, ""))
			if err := os.WriteFile(path, png, 0o600); err != nil {
				return fmt.Errorf("%w: %v", ErrAssetDir, err)
			}
			record(spec.Index, assemble.AssetResult{Path: path}, nil)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return assets, issues, nil
}

// figureAssetName builds a collision-free asset filename: labels may
// repeat across a chapter, so the block index keeps names distinct.
func figureAssetName(spec figure.Spec, suffix string) string {
	return fmt.Sprintf("fig-%03d-%s%s.png", spec.Index, spec.Label, suffix)
}

// fallbackTitle derives a human title from a chapter name like
// "chapter_3_bonds" when front matter and headings offer nothing.
func fallbackTitle(name string) string {
	if name == "" {
		return "Untitled"
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.TrimSpace(name)
}

// excerpt shortens a LaTeX expression for issue listings.
func excerpt(expr string) string {
	expr = strings.Join(strings.Fields(expr), " ")
	if len(expr) > 40 {
		return expr[:40] + "..."
	}
	return expr
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
