package figure

import (
	"bytes"
	"context"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/alnah/go-qmd2pptx/internal/render"
)

// snapshotStyle is the chroma style used for code snapshots. Light
// background so the image reads well on standard slide themes.
const snapshotStyle = "github"

// Snapshotter rasterizes figure source code as a syntax-highlighted image.
// It stands in for the figure's plot when execution fails, and replaces
// execution entirely when code snapshots are requested.
type Snapshotter struct {
	ras render.Rasterizer
}

// NewSnapshotter creates a Snapshotter on the shared rasterizer.
func NewSnapshotter(ras render.Rasterizer) *Snapshotter {
	return &Snapshotter{ras: ras}
}

// Snapshot renders highlighted source to PNG bytes.
func (s *Snapshotter) Snapshot(ctx context.Context, code, language string, scale float64) ([]byte, error) {
	page, err := buildCodePage(code, language)
	if err != nil {
		return nil, err
	}
	return s.ras.Capture(ctx, render.Request{
		HTML:            page,
		WaitSelector:    "pre",
		CaptureSelector: "pre",
		Scale:           scale,
	})
}

// buildCodePage produces a standalone highlighted-HTML page for the code.
func buildCodePage(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(snapshotStyle)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenising code: %w", err)
	}

	formatter := chromahtml.New(chromahtml.Standalone(true), chromahtml.WithLineNumbers(false))
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "", fmt.Errorf("formatting code: %w", err)
	}
	return buf.String(), nil
}
